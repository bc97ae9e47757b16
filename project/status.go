package project

import "strconv"

// OpenBidStatus is the bid-opening state of a project.
type OpenBidStatus int

const (
	OpenBidNotStarted OpenBidStatus = iota
	OpenBidInProgress
	OpenBidFinished
)

var openBidLabels = map[OpenBidStatus]string{
	OpenBidNotStarted: "未开标",
	OpenBidInProgress: "开标中",
	OpenBidFinished:   "开标结束",
}

func (s OpenBidStatus) String() string {
	switch s {
	case OpenBidNotStarted:
		return "not_started"
	case OpenBidInProgress:
		return "in_progress"
	case OpenBidFinished:
		return "finished"
	}
	return "unknown(" + strconv.Itoa(int(s)) + ")"
}

// Label returns the text shown on the detail page; unknown values yield "".
func (s OpenBidStatus) Label() string { return openBidLabels[s] }

// DecryptStatus is the bid-decryption state of a project.
type DecryptStatus int

const (
	DecryptPending DecryptStatus = iota
	DecryptDone
)

var decryptLabels = map[DecryptStatus]string{
	DecryptPending: "未解密",
	DecryptDone:    "解密完成",
}

func (s DecryptStatus) String() string {
	switch s {
	case DecryptPending:
		return "pending"
	case DecryptDone:
		return "done"
	}
	return "unknown(" + strconv.Itoa(int(s)) + ")"
}

// Label returns the text shown on the detail page; unknown values yield "".
func (s DecryptStatus) Label() string { return decryptLabels[s] }
