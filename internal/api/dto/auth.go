package dto

import "github.com/go-playground/validator/v10"

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

var Validate = validator.New()
