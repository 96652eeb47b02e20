package service

import "errors"

// 业务错误定义
var (
	ErrPollNotFound   = errors.New("poll not found")
	ErrPollNotActive  = errors.New("poll is not active")
	ErrPollEnded      = errors.New("poll has ended")
	ErrInvalidOption  = errors.New("invalid option for this poll")
	ErrAlreadyVoted   = errors.New("you have already voted in this poll")
	ErrTooFewOptions  = errors.New("a poll must have at least two options")
	ErrDuplicateOrder = errors.New("option display orders must be unique per poll")
)
