package explain

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/okian/reco/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryCache(t *testing.T) {
	Convey("Given a memory cache", t, func() {
		ctx := context.Background()
		c := NewMemoryCache(30 * time.Millisecond)
		defer func() { _ = c.Close() }()

		Convey("When a value is stored", func() {
			So(c.Set(ctx, "k", "v"), ShouldBeNil)
			v, ok, err := c.Get(ctx, "k")

			Convey("Then it should be returned", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "v")
				So(c.Len(), ShouldEqual, 1)
			})
		})

		Convey("When the value expires", func() {
			So(c.Set(ctx, "k", "v"), ShouldBeNil)
			time.Sleep(50 * time.Millisecond)
			_, ok, err := c.Get(ctx, "k")

			Convey("Then it should be a miss", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When closed twice", func() {
			So(c.Close(), ShouldBeNil)

			Convey("Then it should not panic", func() {
				So(func() { _ = c.Close() }, ShouldNotPanic)
			})
		})
	})
}

func TestRedisCache(t *testing.T) {
	Convey("Given a redis cache backed by miniredis", t, func() {
		ctx := context.Background()
		mr, err := miniredis.Run()
		So(err, ShouldBeNil)
		defer mr.Close()

		client, err := DialRedis(ctx, mr.Addr(), "", 0)
		So(err, ShouldBeNil)
		defer func() { _ = client.Close() }()

		c := NewRedisCache(client, time.Minute)

		Convey("When a value is stored", func() {
			So(c.Set(ctx, "k", "v"), ShouldBeNil)
			v, ok, err := c.Get(ctx, "k")

			Convey("Then it should be returned and namespaced", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "v")
				So(mr.Exists("reco:explain:k"), ShouldBeTrue)
			})
		})

		Convey("When the ttl passes", func() {
			So(c.Set(ctx, "k", "v"), ShouldBeNil)
			mr.FastForward(2 * time.Minute)
			_, ok, err := c.Get(ctx, "k")

			Convey("Then it should be a miss", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the key was never stored", func() {
			_, ok, err := c.Get(ctx, "absent")

			Convey("Then it should be a miss without error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given an unreachable redis", t, func() {
		_, err := DialRedis(context.Background(), "127.0.0.1:1", "", 0)

		Convey("Then dialing should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

// failingCache always errors.
type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, string) error { return errors.New("cache down") }

func TestCached(t *testing.T) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given a cached explainer", t, func() {
		ctx := context.Background()
		p := ListingPrompt("desc")

		Convey("When the same prompt is asked twice", func() {
			stub := &stubExplainer{text: "short"}
			mem := NewMemoryCache(time.Minute)
			defer func() { _ = mem.Close() }()
			c := NewCached(stub, mem)

			first, err1 := c.Explain(ctx, p)
			second, err2 := c.Explain(ctx, p)

			Convey("Then the provider should be called once", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldEqual, "short")
				So(second, ShouldEqual, "short")
				So(stub.calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the provider fails", func() {
			stub := &stubExplainer{err: ErrUpstream}
			mem := NewMemoryCache(time.Minute)
			defer func() { _ = mem.Close() }()
			c := NewCached(stub, mem)

			_, err := c.Explain(ctx, p)

			Convey("Then the error should pass through and nothing is cached", func() {
				So(errors.Is(err, ErrUpstream), ShouldBeTrue)
				So(mem.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the cache itself fails", func() {
			stub := &stubExplainer{text: "still works"}
			c := NewCached(stub, failingCache{})

			text, err := c.Explain(ctx, p)

			Convey("Then the provider answer should still be returned", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, "still works")
			})
		})

		Convey("When the first of two callers for one prompt gives up", func() {
			stub := &stubExplainer{text: "shared", delay: 200 * time.Millisecond}
			mem := NewMemoryCache(time.Minute)
			defer func() { _ = mem.Close() }()
			c := NewCached(stub, mem, WithCallTimeout(time.Second))

			firstCtx, cancelFirst := context.WithCancel(ctx)
			firstErr := make(chan error, 1)
			go func() {
				_, err := c.Explain(firstCtx, p)
				firstErr <- err
			}()

			type result struct {
				text string
				err  error
			}
			second := make(chan result, 1)
			time.Sleep(10 * time.Millisecond)
			go func() {
				text, err := c.Explain(ctx, p)
				second <- result{text, err}
			}()

			time.Sleep(20 * time.Millisecond)
			cancelFirst()

			Convey("Then only the first caller should see the cancellation", func() {
				So(errors.Is(<-firstErr, context.Canceled), ShouldBeTrue)
				got := <-second
				So(got.err, ShouldBeNil)
				So(got.text, ShouldEqual, "shared")
				So(stub.calls.Load(), ShouldEqual, 1)
			})

			Convey("And the shared answer should be cached", func() {
				<-second
				text, ok, err := mem.Get(ctx, p.Key())
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(text, ShouldEqual, "shared")
			})
		})

		Convey("When the shared call exceeds its own timeout", func() {
			stub := &stubExplainer{text: "late", delay: time.Second}
			mem := NewMemoryCache(time.Minute)
			defer func() { _ = mem.Close() }()
			c := NewCached(stub, mem, WithCallTimeout(20*time.Millisecond))

			_, err := c.Explain(ctx, p)

			Convey("Then the caller should get a deadline error", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})

		Convey("When backed by redis", func() {
			mr, err := miniredis.Run()
			So(err, ShouldBeNil)
			defer mr.Close()
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			defer func() { _ = client.Close() }()

			stub := &stubExplainer{text: "from llm"}
			c := NewCached(stub, NewRedisCache(client, time.Minute))

			var wg sync.WaitGroup
			for range 4 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = c.Explain(ctx, p)
				}()
			}
			wg.Wait()
			text, err := c.Explain(ctx, p)

			Convey("Then later calls should be served from redis", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, "from llm")
				So(stub.calls.Load(), ShouldBeBetweenOrEqual, 1, 4)
				calls := stub.calls.Load()
				_, _ = c.Explain(ctx, p)
				So(stub.calls.Load(), ShouldEqual, calls)
			})
		})
	})
}
