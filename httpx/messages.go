package httpx

import "strings"

// Messages are the user-facing texts the built-in interceptors and the upload
// pipeline put into errors, and from there into error toasts. HTTPError and
// UploadStatus receive the transport status through a %d verb.
type Messages struct {
	HTTPError     string
	BusinessError string
	NetworkError  string
	RequestFailed string
	UploadFailed  string
	UploadStatus  string
}

// DefaultMessages returns the English texts.
func DefaultMessages() Messages {
	return Messages{
		HTTPError:     "HTTP error: %d",
		BusinessError: "business error",
		NetworkError:  "network error",
		RequestFailed: "request failed",
		UploadFailed:  "upload failed",
		UploadStatus:  "upload failed: %d",
	}
}

// ChineseMessages returns the texts in the wording of the mini-program pages.
func ChineseMessages() Messages {
	return Messages{
		HTTPError:     "HTTP 错误: %d",
		BusinessError: "业务错误",
		NetworkError:  "网络错误",
		RequestFailed: "请求失败",
		UploadFailed:  "上传失败",
		UploadStatus:  "上传失败: %d",
	}
}

// MessagesFor maps a language tag ("en", "zh", "zh-CN") to a message set.
// Unknown tags fall back to English.
func MessagesFor(lang string) Messages {
	if strings.HasPrefix(strings.ToLower(lang), "zh") {
		return ChineseMessages()
	}
	return DefaultMessages()
}

// merge returns m with every empty field taken from base.
func (m Messages) merge(base Messages) Messages {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Messages{
		HTTPError:     pick(m.HTTPError, base.HTTPError),
		BusinessError: pick(m.BusinessError, base.BusinessError),
		NetworkError:  pick(m.NetworkError, base.NetworkError),
		RequestFailed: pick(m.RequestFailed, base.RequestFailed),
		UploadFailed:  pick(m.UploadFailed, base.UploadFailed),
		UploadStatus:  pick(m.UploadStatus, base.UploadStatus),
	}
}
