package i18n

import (
	"fmt"
	"sync"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
)

const (
	LocaleEnglish = "en"
	LocaleChinese = "zh"
)

// Keys for messages that are not error codes.
const (
	MsgLoginSucceeded     = "LOGIN_SUCCEEDED"
	MsgRegistered         = "REGISTERED"
	MsgEmployeeCreated    = "EMPLOYEE_CREATED"
	MsgEmployeeUpdated    = "EMPLOYEE_UPDATED"
	MsgDepartmentCreated  = "DEPARTMENT_CREATED"
	MsgDepartmentUpdated  = "DEPARTMENT_UPDATED"
	MsgMemberAdded        = "MEMBER_ADDED"
	MsgMemberRemoved      = "MEMBER_REMOVED"
	MsgRequestFailed      = "REQUEST_FAILED"
	MsgSessionExpired     = "SESSION_EXPIRED"
	MsgLoginRequired      = "LOGIN_REQUIRED"
	MsgLoggedOut          = "LOGGED_OUT"
	MsgNoEmployees        = "NO_EMPLOYEES"
	MsgNoDepartments      = "NO_DEPARTMENTS"
	MsgDepartmentStatusOK = "DEPARTMENT_STATUS_CHANGED"
	MsgRouteNotFound      = "ROUTE_NOT_FOUND"
)

var messages = map[string]map[string]string{
	LocaleEnglish: {
		"VALIDATION_FAILED":    "invalid request",
		"MISSING_FIELD":        "{0} is required",
		"INVALID_REQUEST_BODY": "invalid request body",
		"INVALID_ID":           "invalid id",
		"NO_FIELDS_PROVIDED":   "no fields provided for update",
		"INVALID_FILE_TYPE":    "only image files are allowed",
		"FILE_TOO_LARGE":       "uploaded file is too large",
		"INVALID_CREDENTIALS":  "invalid username or password",
		"MISSING_TOKEN":        "access token is missing",
		"INVALID_TOKEN":        "invalid or expired access token",
		"NO_ROLE_ASSIGNED":     "user has no role assigned",
		"FORBIDDEN":            "you do not have permission to perform this action",
		"EMPLOYEE_NOT_FOUND":   "employee not found",
		"DEPARTMENT_NOT_FOUND": "department not found",
		"FILE_NOT_FOUND":       "file not found",
		"USER_NOT_FOUND":       "user not found",
		"DUPLICATE_USER":       "username or email already exists",
		"DUPLICATE_DEPARTMENT": "department name already exists",
		"RATE_LIMITED":         "too many requests, please try again later",
		"INTERNAL_ERROR":       "internal server error",

		MsgLoginSucceeded:     "login successful",
		MsgRegistered:         "registration successful",
		MsgEmployeeCreated:    "employee created",
		MsgEmployeeUpdated:    "employee updated",
		MsgDepartmentCreated:  "department created",
		MsgDepartmentUpdated:  "department updated",
		MsgMemberAdded:        "employee added to department",
		MsgMemberRemoved:      "employee removed from department",
		MsgRequestFailed:      "request failed, please try again",
		MsgSessionExpired:     "session expired, please log in again",
		MsgLoginRequired:      "please log in first",
		MsgLoggedOut:          "logged out",
		MsgNoEmployees:        "no employees",
		MsgNoDepartments:      "no departments",
		MsgDepartmentStatusOK: "department status changed",
		MsgRouteNotFound:      "route not found",
	},
	LocaleChinese: {
		"VALIDATION_FAILED":    "请求参数无效",
		"MISSING_FIELD":        "{0}不能为空",
		"INVALID_REQUEST_BODY": "请求体格式错误",
		"INVALID_ID":           "无效的ID",
		"NO_FIELDS_PROVIDED":   "没有提供要更新的字段",
		"INVALID_FILE_TYPE":    "只允许上传图片文件",
		"FILE_TOO_LARGE":       "上传文件过大",
		"INVALID_CREDENTIALS":  "用户名或密码错误",
		"MISSING_TOKEN":        "访问令牌缺失",
		"INVALID_TOKEN":        "无效的访问令牌",
		"NO_ROLE_ASSIGNED":     "用户未分配角色",
		"FORBIDDEN":            "无权限执行此操作",
		"EMPLOYEE_NOT_FOUND":   "雇员不存在",
		"DEPARTMENT_NOT_FOUND": "部门不存在",
		"FILE_NOT_FOUND":       "文件不存在",
		"USER_NOT_FOUND":       "用户不存在",
		"DUPLICATE_USER":       "用户名或邮箱已存在",
		"DUPLICATE_DEPARTMENT": "部门名称已存在",
		"RATE_LIMITED":         "请求过于频繁，请稍后再试",
		"INTERNAL_ERROR":       "服务器内部错误",

		MsgLoginSucceeded:     "登录成功",
		MsgRegistered:         "注册成功",
		MsgEmployeeCreated:    "雇员添加成功",
		MsgEmployeeUpdated:    "雇员信息更新成功",
		MsgDepartmentCreated:  "部门添加成功",
		MsgDepartmentUpdated:  "部门信息更新成功",
		MsgMemberAdded:        "雇员已加入部门",
		MsgMemberRemoved:      "雇员已移出部门",
		MsgRequestFailed:      "请求失败，请重试",
		MsgSessionExpired:     "登录已过期，请重新登录",
		MsgLoginRequired:      "请先登录",
		MsgLoggedOut:          "已退出登录",
		MsgNoEmployees:        "暂无雇员",
		MsgNoDepartments:      "暂无部门",
		MsgDepartmentStatusOK: "部门状态已更新",
		MsgRouteNotFound:      "接口不存在",
	},
}

// Catalog resolves message keys for a single locale.
type Catalog struct {
	trans ut.Translator
}

// New builds a catalog for locale ("en" or "zh").
func New(locale string) (*Catalog, error) {
	english := en.New()
	uni := ut.New(english, english, zh.New())

	trans, found := uni.GetTranslator(locale)
	if !found {
		return nil, fmt.Errorf("unsupported locale %q", locale)
	}

	for key, text := range messages[trans.Locale()] {
		if err := trans.Add(key, text, false); err != nil {
			return nil, fmt.Errorf("register message %s: %w", key, err)
		}
	}

	return &Catalog{trans: trans}, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the English catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New(LocaleEnglish)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func (c *Catalog) Locale() string {
	return c.trans.Locale()
}

// Message returns the localized text for key, or fallback when the key is unknown.
func (c *Catalog) Message(key, fallback string, args ...string) (text string) {
	// T indexes params by placeholder and panics when too few are given.
	defer func() {
		if recover() != nil {
			text = fallback
		}
	}()

	text, err := c.trans.T(key, args...)
	if err != nil || text == "" {
		return fallback
	}
	return text
}
