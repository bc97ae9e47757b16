package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/Ducr/taro-mobile-open/httpx"
)

func main() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case <-r.Context().Done():
			case <-time.After(10 * time.Second):
			}
			return
		}
		_, _ = fmt.Fprintf(w, `{"code":0,"message":"ok","data":{"projectCode":%q}}`, r.URL.Query().Get("projectCode"))
	}))
	defer srv.Close()

	client, err := httpx.New(httpx.WithBaseURL(srv.URL))
	if err != nil {
		panic(err)
	}
	client.SetToken("demo-token")

	call, err := client.Get(context.Background(), "/project/detail", map[string]string{"projectCode": "P-001"})
	if err != nil {
		panic(err)
	}
	var detail struct {
		ProjectCode string `json:"projectCode"`
	}
	if err := call.Decode(&detail); err != nil {
		panic(err)
	}
	fmt.Printf("%s -> %s\n", call.ID(), detail.ProjectCode)

	slow, err := client.Get(context.Background(), "/slow", nil)
	if err != nil {
		panic(err)
	}
	fmt.Println("active:", client.ListActive())
	fmt.Println("aborted:", slow.Abort())
	_, err = slow.Wait()
	fmt.Println("aborted error:", httpx.IsAborted(err), err)
}
