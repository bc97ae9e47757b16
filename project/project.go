// Package project is the bidding backend's project API: listing, detail and
// the open-bid / decrypt status transitions driven from the detail page.
package project

import (
	"bytes"
	"encoding/json"
)

// Update keys accepted by PUT /project/project.
const (
	KeyOpenBidStatus = "openbidStatus"
	KeyDecryptStatus = "decryptStatus"
)

// Project is one bidding project.
type Project struct {
	ID            int64         `json:"id"`
	ProjectCode   string        `json:"projectCode"`
	ProjectName   string        `json:"projectName"`
	OpenbidTime   string        `json:"openbidTime"`
	Type          string        `json:"type"`
	OpenbidStatus OpenBidStatus `json:"openbidStatus"`
	DecryptStatus DecryptStatus `json:"decryptStatus"`
}

// CanStartOpenBid reports whether bid opening may begin.
func (p Project) CanStartOpenBid() bool {
	return p.OpenbidStatus == OpenBidNotStarted
}

// CanDecrypt reports whether decryption may begin: opening is underway and
// nothing has been decrypted yet.
func (p Project) CanDecrypt() bool {
	return p.OpenbidStatus == OpenBidInProgress && p.DecryptStatus == DecryptPending
}

// CanFinishOpenBid reports whether bid opening may be closed.
func (p Project) CanFinishOpenBid() bool {
	return p.OpenbidStatus == OpenBidInProgress && p.DecryptStatus == DecryptDone
}

// Page is one page of the project list.
type Page struct {
	Rows  []Project `json:"rows"`
	Total int64     `json:"total"`
}

// UnmarshalJSON accepts a bare array or an object carrying the rows under
// "rows" or "list".
func (p *Page) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &p.Rows); err != nil {
			return err
		}
		p.Total = int64(len(p.Rows))
		return nil
	}

	var raw struct {
		Rows  []Project `json:"rows"`
		List  []Project `json:"list"`
		Total *int64    `json:"total"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Rows = raw.Rows
	if p.Rows == nil {
		p.Rows = raw.List
	}
	if raw.Total != nil {
		p.Total = *raw.Total
	} else {
		p.Total = int64(len(p.Rows))
	}
	return nil
}

// ListQuery filters the project list. Zero fields are not sent.
type ListQuery struct {
	ProjectName   string
	ProjectCode   string
	OpenbidStatus *OpenBidStatus
	PageNum       int
	PageSize      int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Adjust normalizes the paging fields.
func (q *ListQuery) Adjust() {
	if q.PageNum < 1 {
		q.PageNum = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	} else if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
}

func (q ListQuery) params() map[string]any {
	m := map[string]any{
		"pageNum":  q.PageNum,
		"pageSize": q.PageSize,
	}
	if q.ProjectName != "" {
		m["projectName"] = q.ProjectName
	}
	if q.ProjectCode != "" {
		m["projectCode"] = q.ProjectCode
	}
	if q.OpenbidStatus != nil {
		m["openbidStatus"] = int(*q.OpenbidStatus)
	}
	return m
}

// UserInfo is the signed-in user cached in storage.
type UserInfo struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
	NickName string `json:"nickName"`
}
