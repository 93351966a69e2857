package core

import "fmt"

// ObfuscateCardNumber keeps the last four digits of a card number.
// Applying it to an already masked number returns the same value.
func ObfuscateCardNumber(cardNumber string) (string, error) {
	if len(cardNumber) < 13 {
		return "", NewGatewayError(ErrKeyInvalidCardNumber, "Invalid card number", nil)
	}
	return fmt.Sprintf("**** **** **** %s", cardNumber[len(cardNumber)-4:]), nil
}

// ObfuscateExpirationDate hides the month of an MM/YY expiration date
func ObfuscateExpirationDate(expirationDate string) (string, error) {
	if len(expirationDate) < 5 {
		return "", NewGatewayError(ErrKeyInvalidExpirationDate, "Invalid expiration date", nil)
	}
	return fmt.Sprintf("**/%s", expirationDate[len(expirationDate)-2:]), nil
}

// ObfuscateCVV hides every digit of the CVV
func ObfuscateCVV(cvv string) (string, error) {
	if len(cvv) < 3 {
		return "", NewGatewayError(ErrKeyInvalidCVV, "Invalid CVV", nil)
	}
	return "***", nil
}
