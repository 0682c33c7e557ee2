package validator

import (
	"errors"
	"regexp"
	"strings"
)

// Limits applied to values that arrive over HTTP.
const (
	MaxTopicLength   = 256
	MaxAddressLength = 1024
)

var (
	ErrTopicEmpty             = errors.New("topic cannot be empty")
	ErrTopicTooLong           = errors.New("topic is too long")
	ErrAddressTooLong         = errors.New("address is too long")
	ErrNotPrintableASCII      = errors.New("value must contain only printable ASCII characters")
	ErrConnectionNameEmpty    = errors.New("connection name cannot be empty")
	ErrConnectionNameHasDelim = errors.New("connection name cannot contain ':'")
	ErrForwardRuleFormat      = errors.New("forward rule must look like topic=recipient")
)

var printableASCII = regexp.MustCompile(`^[\x20-\x7E]*$`)

// ValidateTopic checks a message topic.
func ValidateTopic(topic string) error {
	if topic == "" {
		return ErrTopicEmpty
	}
	if len(topic) > MaxTopicLength {
		return ErrTopicTooLong
	}
	if !printableASCII.MatchString(topic) {
		return ErrNotPrintableASCII
	}
	return nil
}

// ValidateAddress checks a destination address. An empty address is valid.
// Segment structure is not checked: empty or dangling hops are routed as-is.
func ValidateAddress(address string) error {
	if len(address) > MaxAddressLength {
		return ErrAddressTooLong
	}
	if !printableASCII.MatchString(address) {
		return ErrNotPrintableASCII
	}
	return nil
}

// ValidateConnectionName checks a name that will be registered as a single hop.
func ValidateConnectionName(name string) error {
	if name == "" {
		return ErrConnectionNameEmpty
	}
	if strings.Contains(name, ":") {
		return ErrConnectionNameHasDelim
	}
	if !printableASCII.MatchString(name) {
		return ErrNotPrintableASCII
	}
	return nil
}

// ForwardRule is a parsed "topic=recipient" entry.
type ForwardRule struct {
	Topic     string
	Recipient string
}

// ParseForwardRules parses a comma separated list of topic=recipient pairs.
// Blank entries are skipped.
func ParseForwardRules(raw string) ([]ForwardRule, error) {
	var rules []ForwardRule
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		topic, recipient, ok := strings.Cut(entry, "=")
		topic, recipient = strings.TrimSpace(topic), strings.TrimSpace(recipient)
		if !ok || topic == "" || recipient == "" {
			return nil, ErrForwardRuleFormat
		}
		if err := ValidateTopic(topic); err != nil {
			return nil, err
		}
		if err := ValidateAddress(recipient); err != nil {
			return nil, err
		}

		rules = append(rules, ForwardRule{Topic: topic, Recipient: recipient})
	}
	return rules, nil
}
