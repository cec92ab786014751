package store

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/brightlead/site/pkg/bl/validation"
)

// Domain is one of the independent state areas the store tracks.
// Each domain has its own loading flag and error register so unrelated
// operations never interfere with each other.
type Domain string

const (
	DomainCases   Domain = "cases"
	DomainContent Domain = "content"
	DomainForm    Domain = "form"
	DomainLeads   Domain = "leads"
)

// User-facing messages, preserved from the production site.
const (
	MsgNameRequired    = "请输入您的姓名"
	MsgPhoneRequired   = "请输入您的手机号码"
	MsgPhoneInvalid    = "请输入有效的手机号码"
	MsgNameTooShort    = "姓名至少2个字符"
	MsgNameTooLong     = "姓名不能超过20个字符"
	MsgIndustryTooLong = "行业类目不能超过100个字符"
	MsgMessageTooLong  = "留言内容不能超过500个字符"
	MsgNetworkError    = "网络错误，请稍后重试"
	MsgBadContentType  = "服务器响应格式不正确"
	MsgBadResponse     = "服务器响应格式错误"
	MsgSubmitSuccess   = "提交成功，我们会尽快联系您！"
	MsgCasesFailed     = "获取案例失败"
	MsgContentFailed   = "获取内容失败"
)

// phonePattern matches an 11-digit mainland mobile number: leading 1,
// second digit 3-9.
var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// IsValidPhone reports whether s matches the mobile number pattern.
func IsValidPhone(s string) bool {
	return validation.Matches(strings.TrimSpace(s), phonePattern)
}

// FormData is the transient lead form state, one instance per submission
// session. Created empty, mutated field by field, cleared only on a
// successful submission.
type FormData struct {
	Name     string
	Phone    string
	Industry string
	Message  string
}

// IsEmpty reports whether every field is blank.
func (f FormData) IsEmpty() bool {
	return f.Name == "" && f.Phone == "" && f.Industry == "" && f.Message == ""
}

// Trimmed returns a copy with all fields whitespace-trimmed, the shape
// actually submitted to the backend.
func (f FormData) Trimmed() FormData {
	return FormData{
		Name:     strings.TrimSpace(f.Name),
		Phone:    strings.TrimSpace(f.Phone),
		Industry: strings.TrimSpace(f.Industry),
		Message:  strings.TrimSpace(f.Message),
	}
}

// Validate enforces the presentation-layer schema: name 2-20 characters
// required, phone matching the mobile pattern required, industry at most
// 100 characters, message at most 500. SubmitForm independently re-checks
// the required fields, so the store stays safe even when invoked without
// this layer.
func (f FormData) Validate() validation.ValidationErrors {
	var errs validation.ValidationErrors

	name := strings.TrimSpace(f.Name)
	switch {
	case !validation.IsRequired(name):
		errs.Add("name", MsgNameRequired)
	case !validation.MinLength(name, 2):
		errs.Add("name", MsgNameTooShort)
	case !validation.MaxLength(name, 20):
		errs.Add("name", MsgNameTooLong)
	}

	phone := strings.TrimSpace(f.Phone)
	switch {
	case !validation.IsRequired(phone):
		errs.Add("phone", MsgPhoneRequired)
	case !validation.Matches(phone, phonePattern):
		errs.Add("phone", MsgPhoneInvalid)
	}

	if !validation.MaxLength(strings.TrimSpace(f.Industry), 100) {
		errs.Add("industry", MsgIndustryTooLong)
	}
	if !validation.MaxLength(strings.TrimSpace(f.Message), 500) {
		errs.Add("message", MsgMessageTooLong)
	}

	return errs
}

// Result is what every submission attempt returns to its caller. Views
// use it to drive notifications; the store never renders UI itself.
type Result struct {
	Success bool
	Message string
	Data    json.RawMessage
}
