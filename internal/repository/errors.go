package repository

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrUserNotFound   = errors.New("user not found")
	ErrPostNotFound   = errors.New("post not found")
	ErrGroupNotFound  = errors.New("group not found")
	ErrResetNotFound  = errors.New("password reset not found")
	ErrResetRedeemed  = errors.New("password reset already used")
	ErrSelfFollow     = errors.New("users cannot follow themselves")
	ErrDuplicateGroup = errors.New("group slug already exists")
)
