package models

import "time"

type User struct {
	Id       int64
	Username string
	Email    string
	PassHash []byte
	Created  time.Time
}
