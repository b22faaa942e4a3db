package explain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewChatClient(t *testing.T) {
	Convey("Given no api key", t, func() {
		_, err := NewChatClient("")

		Convey("Then creation should fail", func() {
			So(errors.Is(err, ErrMissingAPIKey), ShouldBeTrue)
		})
	})

	Convey("Given options", t, func() {
		c, err := NewChatClient("k", WithBaseURL("http://x/v1/"), WithModel("m"), WithMaxTokens(10), WithTemperature(0))

		Convey("Then they should be applied", func() {
			So(err, ShouldBeNil)
			So(c.baseURL, ShouldEqual, "http://x/v1")
			So(c.model, ShouldEqual, "m")
			So(c.maxTokens, ShouldEqual, 10)
			So(c.temperature, ShouldEqual, 0)
		})
	})
}

func TestChatClientExplain(t *testing.T) {
	Convey("Given a chat completion server", t, func() {
		var (
			gotAuth string
			gotPath string
			gotReq  chatRequest
			status  = http.StatusOK
			reply   = `{"choices":[{"message":{"role":"assistant","content":"  A calming pick.  "},"finish_reason":"stop"}]}`
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&gotReq)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))
		defer srv.Close()

		c, err := NewChatClient("secret", WithBaseURL(srv.URL+"/openai/v1"), WithModel("test-model"))
		So(err, ShouldBeNil)
		p := Prompt{Kind: KindRecommendation, System: "sys", User: "usr"}

		Convey("When the call succeeds", func() {
			text, err := c.Explain(context.Background(), p)

			Convey("Then it should send the prompt and return trimmed text", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, "A calming pick.")
				So(gotAuth, ShouldEqual, "Bearer secret")
				So(gotPath, ShouldEqual, "/openai/v1/chat/completions")
				So(gotReq.Model, ShouldEqual, "test-model")
				So(len(gotReq.Messages), ShouldEqual, 2)
				So(gotReq.Messages[0], ShouldResemble, chatMessage{Role: "system", Content: "sys"})
				So(gotReq.Messages[1], ShouldResemble, chatMessage{Role: "user", Content: "usr"})
			})
		})

		Convey("When the server returns an error status", func() {
			status = http.StatusTooManyRequests
			reply = `{"error":{"message":"slow down"}}`

			_, err := c.Explain(context.Background(), p)

			Convey("Then it should fail with ErrUpstream", func() {
				So(errors.Is(err, ErrUpstream), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "429")
			})
		})

		Convey("When the server returns no choices", func() {
			reply = `{"choices":[]}`

			_, err := c.Explain(context.Background(), p)

			Convey("Then it should fail with ErrEmptyResponse", func() {
				So(errors.Is(err, ErrEmptyResponse), ShouldBeTrue)
			})
		})

		Convey("When the content is blank", func() {
			reply = `{"choices":[{"message":{"role":"assistant","content":"   "}}]}`

			_, err := c.Explain(context.Background(), p)

			Convey("Then it should fail with ErrEmptyResponse", func() {
				So(errors.Is(err, ErrEmptyResponse), ShouldBeTrue)
			})
		})

		Convey("When the body is not JSON", func() {
			reply = `<html>`

			_, err := c.Explain(context.Background(), p)

			Convey("Then it should fail with ErrUpstream", func() {
				So(errors.Is(err, ErrUpstream), ShouldBeTrue)
			})
		})

		Convey("When the context is already canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := c.Explain(ctx, p)

			Convey("Then the call should fail", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
