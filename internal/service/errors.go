package service

import "errors"

var (
	// ErrNotFound 资源/用户/流水不存在或不可用
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyRecorded 对已是 Active 的动作重复 do
	ErrAlreadyRecorded = errors.New("action already recorded")
	// ErrNotRecorded 对不存在 Active 动作的 undo
	ErrNotRecorded = errors.New("action not recorded")
	// ErrPermissionDenied 操作者无权对目标执行该动作
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidCredential 登录口令错误
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUserExists 用户名或邮箱已占用
	ErrUserExists = errors.New("user already exists")
)
