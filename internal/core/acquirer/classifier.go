// Package acquirer simulates the acquiring bank: it classifies card numbers,
// resolves them into immediate or deferred outcomes and settles deferred ones.
package acquirer

import (
	"errors"
	"fmt"
)

// Classification is the bucket a card number falls into
type Classification int

const (
	Unknown Classification = iota
	Accepted
	Declined
)

func (c Classification) String() string {
	switch c {
	case Accepted:
		return "accepted"
	case Declined:
		return "declined"
	default:
		return "unknown"
	}
}

// ErrOverlappingCardLists is returned when a card number is both accepted and declined
var ErrOverlappingCardLists = errors.New("accepted and declined card lists overlap")

// DefaultAcceptedCards always authorize immediately
var DefaultAcceptedCards = []string{
	"378734493671000",
	"5610591081018250",
	"4111111111111111",
	"30569309025904",
}

// DefaultDeclinedCards are always rejected immediately
var DefaultDeclinedCards = []string{
	"378282246310005",
	"371449635398431",
	"5200828282828210",
	"2223003122003222",
}

// Classifier maps card numbers onto a Classification using static membership lists
type Classifier struct {
	accepted map[string]struct{}
	declined map[string]struct{}
}

// NewClassifier builds a classifier from two disjoint card lists
func NewClassifier(accepted, declined []string) (*Classifier, error) {
	c := &Classifier{
		accepted: make(map[string]struct{}, len(accepted)),
		declined: make(map[string]struct{}, len(declined)),
	}
	for _, number := range accepted {
		c.accepted[number] = struct{}{}
	}
	for _, number := range declined {
		if _, ok := c.accepted[number]; ok {
			return nil, fmt.Errorf("%w: %s", ErrOverlappingCardLists, number)
		}
		c.declined[number] = struct{}{}
	}
	return c, nil
}

// DefaultClassifier uses DefaultAcceptedCards and DefaultDeclinedCards
func DefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultAcceptedCards, DefaultDeclinedCards)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify never fails; numbers in neither list are Unknown
func (c *Classifier) Classify(cardNumber string) Classification {
	if _, ok := c.accepted[cardNumber]; ok {
		return Accepted
	}
	if _, ok := c.declined[cardNumber]; ok {
		return Declined
	}
	return Unknown
}
