package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Ducr/taro-mobile-open/httpx"
	"github.com/Ducr/taro-mobile-open/storage"
)

const (
	pathList   = "/project/project"
	pathDetail = "/project/detail"
	pathUpdate = "/project/project"
)

var (
	// ErrTransitionNotAllowed is returned when a status change does not
	// apply to the project's current state.
	ErrTransitionNotAllowed = errors.New("project: transition not allowed")
	// ErrEmptyCode is returned for an empty project code.
	ErrEmptyCode = errors.New("project: empty project code")
)

// Requester is the part of *httpx.Client the service uses.
type Requester interface {
	Get(ctx context.Context, url string, params any, cfg ...httpx.Config) (*httpx.Call, error)
	Put(ctx context.Context, url string, data any, cfg ...httpx.Config) (*httpx.Call, error)
}

// Service calls the project endpoints.
type Service struct {
	req   Requester
	store storage.Store
}

// NewService returns a Service. store may be nil when the user cache is not needed.
func NewService(req Requester, store storage.Store) *Service {
	return &Service{req: req, store: store}
}

// List returns one page of projects.
func (s *Service) List(ctx context.Context, q ListQuery, cfg ...httpx.Config) (Page, error) {
	q.Adjust()
	call, err := s.req.Get(ctx, pathList, q.params(), cfg...)
	if err != nil {
		return Page{}, err
	}
	var page Page
	if err := call.Decode(&page); err != nil {
		return Page{}, fmt.Errorf("project: list: %w", err)
	}
	return page, nil
}

// Detail fetches one project by code.
func (s *Service) Detail(ctx context.Context, code string, cfg ...httpx.Config) (Project, error) {
	if strings.TrimSpace(code) == "" {
		return Project{}, ErrEmptyCode
	}
	call, err := s.req.Get(ctx, pathDetail, map[string]string{"projectCode": code}, cfg...)
	if err != nil {
		return Project{}, err
	}
	var p Project
	if err := call.Decode(&p); err != nil {
		return Project{}, fmt.Errorf("project: detail %s: %w", code, err)
	}
	return p, nil
}

type updateBody struct {
	ProjectCode string `json:"projectCode"`
	UpdateKey   string `json:"updateKey"`
	UpdateValue int    `json:"updateValue"`
}

// Update sets one status field of a project.
func (s *Service) Update(ctx context.Context, code, key string, value int, cfg ...httpx.Config) error {
	if strings.TrimSpace(code) == "" {
		return ErrEmptyCode
	}
	call, err := s.req.Put(ctx, pathUpdate, updateBody{ProjectCode: code, UpdateKey: key, UpdateValue: value}, cfg...)
	if err != nil {
		return err
	}
	if _, err := call.Wait(); err != nil {
		return fmt.Errorf("project: update %s %s=%d: %w", code, key, value, err)
	}
	return nil
}

// StartOpenBid moves a project from not started to in progress.
func (s *Service) StartOpenBid(ctx context.Context, code string) (Project, error) {
	return s.transition(ctx, code, Project.CanStartOpenBid, KeyOpenBidStatus, int(OpenBidInProgress))
}

// StartDecrypt marks an opening project's bids as decrypted.
func (s *Service) StartDecrypt(ctx context.Context, code string) (Project, error) {
	return s.transition(ctx, code, Project.CanDecrypt, KeyDecryptStatus, int(DecryptDone))
}

// FinishOpenBid closes bid opening once decryption is done.
func (s *Service) FinishOpenBid(ctx context.Context, code string) (Project, error) {
	return s.transition(ctx, code, Project.CanFinishOpenBid, KeyOpenBidStatus, int(OpenBidFinished))
}

// transition checks the guard against fresh detail, applies the update and
// returns the project as reloaded from the backend.
func (s *Service) transition(ctx context.Context, code string, allowed func(Project) bool, key string, value int) (Project, error) {
	p, err := s.Detail(ctx, code)
	if err != nil {
		return Project{}, err
	}
	if !allowed(p) {
		return p, fmt.Errorf("%w: %s=%d with openbid=%s decrypt=%s",
			ErrTransitionNotAllowed, key, value, p.OpenbidStatus, p.DecryptStatus)
	}
	if err := s.Update(ctx, code, key, value); err != nil {
		return p, err
	}
	return s.Detail(ctx, code)
}

// SaveUserInfo caches the signed-in user.
func (s *Service) SaveUserInfo(ctx context.Context, u UserInfo) error {
	if s.store == nil {
		return errors.New("project: no store configured")
	}
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, storage.KeyUserInfo, string(b))
}

// UserInfo returns the cached user, if any.
func (s *Service) UserInfo(ctx context.Context) (UserInfo, bool, error) {
	if s.store == nil {
		return UserInfo{}, false, nil
	}
	v, ok, err := s.store.Get(ctx, storage.KeyUserInfo)
	if err != nil || !ok {
		return UserInfo{}, false, err
	}
	var u UserInfo
	if err := json.Unmarshal([]byte(v), &u); err != nil {
		return UserInfo{}, false, fmt.Errorf("project: decode user info: %w", err)
	}
	return u, true, nil
}
