package validator

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidEmail         = errors.New("invalid email")
	ErrInvalidUsername      = errors.New("invalid username")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidAccountNumber = errors.New("invalid account number")
)

var (
	emailRegex         = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex      = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	accountNumberRegex = regexp.MustCompile(`^[0-9]{6,20}$`)
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateRole(role string) error {
	if role != "buyer" && role != "seller" {
		return ErrInvalidRole
	}
	return nil
}

func ValidateAccountNumber(accountNumber string) error {
	if !accountNumberRegex.MatchString(accountNumber) {
		return ErrInvalidAccountNumber
	}
	return nil
}
