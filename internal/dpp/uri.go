package dpp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	uriScheme = "DPP:"
	uriEnd    = ";;"
)

// ErrInvalidURI is returned for malformed bootstrapping URIs.
var ErrInvalidURI = errors.New("invalid DPP URI")

// Channel is a global operating class and channel number pair.
type Channel struct {
	Class  int
	Number int
}

// String formats the channel as "class/number"
func (c Channel) String() string {
	return fmt.Sprintf("%d/%d", c.Class, c.Number)
}

// URI is a DPP bootstrapping URI as shown in the provisioning QR code.
//
//	DPP:C:81/6;M:c4be84748637;I:netclock;K:MDkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDIgAD...;;
type URI struct {
	Channels []Channel
	MAC      string
	Info     string
	Key      string
}

// String encodes the URI. Fields are emitted in the order C, M, I, K.
func (u *URI) String() string {
	var b strings.Builder
	b.WriteString(uriScheme)

	if len(u.Channels) > 0 {
		parts := make([]string, len(u.Channels))
		for i, c := range u.Channels {
			parts[i] = c.String()
		}
		b.WriteString("C:" + strings.Join(parts, ",") + ";")
	}
	if u.MAC != "" {
		b.WriteString("M:" + u.MAC + ";")
	}
	if u.Info != "" {
		b.WriteString("I:" + u.Info + ";")
	}
	b.WriteString("K:" + u.Key + ";")
	b.WriteString(";")
	return b.String()
}

// ParseURI decodes a bootstrapping URI. The public key field is required.
func ParseURI(s string) (*URI, error) {
	if !strings.HasPrefix(s, uriScheme) || !strings.HasSuffix(s, uriEnd) {
		return nil, fmt.Errorf("%w: missing %q prefix or %q terminator", ErrInvalidURI, uriScheme, uriEnd)
	}

	body := strings.TrimSuffix(strings.TrimPrefix(s, uriScheme), uriEnd)
	u := &URI{}

	for _, field := range strings.Split(body, ";") {
		if field == "" {
			continue
		}
		name, value, ok := strings.Cut(field, ":")
		if !ok {
			return nil, fmt.Errorf("%w: field %q has no value", ErrInvalidURI, field)
		}

		switch name {
		case "C":
			channels, err := parseChannelPairs(value)
			if err != nil {
				return nil, err
			}
			u.Channels = channels
		case "M":
			u.MAC = value
		case "I":
			u.Info = value
		case "K":
			u.Key = value
		default:
			// Unknown fields (V:, H:, ...) are allowed by the format.
		}
	}

	if u.Key == "" {
		return nil, fmt.Errorf("%w: missing public key", ErrInvalidURI)
	}
	return u, nil
}

func parseChannelPairs(value string) ([]Channel, error) {
	var channels []Channel
	for _, pair := range strings.Split(value, ",") {
		classStr, numStr, ok := strings.Cut(pair, "/")
		if !ok {
			return nil, fmt.Errorf("%w: channel %q is not class/number", ErrInvalidURI, pair)
		}
		class, err := strconv.Atoi(classStr)
		if err != nil {
			return nil, fmt.Errorf("%w: operating class %q", ErrInvalidURI, classStr)
		}
		num, err := strconv.Atoi(numStr)
		if err != nil {
			return nil, fmt.Errorf("%w: channel number %q", ErrInvalidURI, numStr)
		}
		channels = append(channels, Channel{Class: class, Number: num})
	}
	return channels, nil
}

// ParseChannelList converts a listen channel list such as "6" or "1,6,36"
// into operating class / channel pairs. Entries already in class/number
// form are kept as given.
func ParseChannelList(list string) ([]Channel, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	var channels []Channel
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			pairs, err := parseChannelPairs(entry)
			if err != nil {
				return nil, err
			}
			channels = append(channels, pairs...)
			continue
		}

		num, err := strconv.Atoi(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid channel %q: %w", entry, err)
		}
		class, err := operatingClass(num)
		if err != nil {
			return nil, err
		}
		channels = append(channels, Channel{Class: class, Number: num})
	}
	return channels, nil
}

// operatingClass maps a 20 MHz channel number to its global operating class.
func operatingClass(channel int) (int, error) {
	switch {
	case channel >= 1 && channel <= 13:
		return 81, nil
	case channel == 14:
		return 82, nil
	case channel >= 36 && channel <= 48:
		return 115, nil
	case channel >= 52 && channel <= 64:
		return 118, nil
	case channel >= 100 && channel <= 144:
		return 121, nil
	case channel >= 149 && channel <= 165:
		return 125, nil
	default:
		return 0, fmt.Errorf("channel %d has no known operating class", channel)
	}
}
