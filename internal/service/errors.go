package service

import "errors"

var (
	// ErrQuantityInvalid 数量必须为正整数
	ErrQuantityInvalid = errors.New("quantity must be a positive integer")
	// ErrProductInvalid 商品数据不完整
	ErrProductInvalid = errors.New("product is invalid")
	// ErrNotAuthenticated 未登录
	ErrNotAuthenticated = errors.New("no authenticated session")
	// ErrLoginFailed 登录失败（面向用户的错误，底层原因见日志）
	ErrLoginFailed = errors.New("login failed")
	// ErrMergeAborted 合并中止，本地购物车保持不变
	ErrMergeAborted = errors.New("cart merge aborted")
)
