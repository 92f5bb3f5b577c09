package insights_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/neuroloom/dashboard-gateway/internal/insights"
	"github.com/neuroloom/dashboard-gateway/internal/upstream"
)

var _ = Describe("Client", func() {
	var (
		core       *httptest.Server
		listing    *httptest.Server
		coreStatus atomic.Int32
		seenAuth   atomic.Value
		seenPath   atomic.Value
		client     *insights.Client
		ctx        context.Context
		loc        *time.Location
	)

	BeforeEach(func() {
		ctx = context.Background()
		loc = time.FixedZone("UTC+2", 2*60*60)
		coreStatus.Store(http.StatusOK)

		core = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenAuth.Store(r.Header.Get("Authorization"))
			seenPath.Store(r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(int(coreStatus.Load()))
			_, _ = w.Write([]byte(`{"results": [
				{"mood": "happy", "created_at": "2026-10-12T09:00:00", "sentiment_score": "0.8"},
				{"mood": "", "created_at": "2026-10-12T09:00:00", "sentiment_score": 0.8}
			]}`))
		}))

		listing = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"courses": [{"user": 7}, {"user": "8"}]}`))
		}))

		client = insights.NewClient(
			upstream.New(core.URL, nil),
			upstream.New(listing.URL+"/enrollments/", nil),
			loc,
		)
	})

	AfterEach(func() {
		core.Close()
		listing.Close()
	})

	Describe("Journal", func() {
		It("should fetch the journal with the caller's authorization", func() {
			entries, skipped, err := client.Journal(ctx, "Bearer abc")

			Expect(err).NotTo(HaveOccurred())
			Expect(seenAuth.Load()).To(Equal("Bearer abc"))
			Expect(seenPath.Load()).To(Equal("/journal/"))
			Expect(skipped).To(Equal(1))
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].CreatedAt.Equal(time.Date(2026, 10, 12, 7, 0, 0, 0, time.UTC))).To(BeTrue())
		})

		It("should return a StatusError for non-2xx answers", func() {
			coreStatus.Store(http.StatusForbidden)

			_, _, err := client.Journal(ctx, "Bearer abc")

			var statusErr *insights.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.StatusCode).To(Equal(http.StatusForbidden))
			Expect(statusErr.Error()).To(ContainSubstring("403"))
		})

		It("should return a plain error when the upstream is unreachable", func() {
			core.Close()

			_, _, err := client.Journal(ctx, "Bearer abc")

			var statusErr *insights.StatusError
			Expect(err).To(HaveOccurred())
			Expect(errors.As(err, &statusErr)).To(BeFalse())
		})
	})

	Describe("Enrollments", func() {
		It("should fetch the configured listing", func() {
			enrollments, err := client.Enrollments(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(enrollments).To(Equal([]insights.Enrollment{{User: "7"}, {User: "8"}}))
		})
	})

	It("should default to the local zone", func() {
		c := insights.NewClient(upstream.New(core.URL, nil), upstream.New(listing.URL, nil), nil)
		Expect(c.Location()).To(Equal(time.Local))
	})
})
