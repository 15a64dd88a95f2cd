// Package service 包含了应用的业务逻辑层。
package service

import "errors"

// 业务层哨兵错误。handler 依据这些错误选择 HTTP 状态码。
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidRole        = errors.New("role must be doctor or patient")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrConversationNotFound 同时覆盖“不存在”和“无权访问”两种情况：
	// 访问控制由查询条件完成，非参与者得到与不存在相同的结果。
	ErrConversationNotFound = errors.New("conversation not found")
	ErrActiveConversation   = errors.New("an active conversation with this patient already exists")
	ErrConversationEnded    = errors.New("conversation has ended")
	ErrPatientNotFound      = errors.New("patient not found")

	ErrEmptyMessage = errors.New("message text must not be empty")

	ErrNothingToSummarize = errors.New("no messages to summarize")
	ErrSummaryNotFound    = errors.New("summary not found")
)
