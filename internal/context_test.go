package internal_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/caredesk/case-management/internal"
)

func TestInternal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Internal Suite")
}

var _ = Describe("request context helpers", func() {
	Describe("UserEmailFromContext", func() {
		It("returns the stored email and true", func() {
			ctx := internal.ContextWithUserEmail(context.Background(), "worker@example.com")

			email, ok := internal.UserEmailFromContext(ctx)

			Expect(ok).To(BeTrue())
			Expect(email).To(Equal("worker@example.com"))
		})

		It("reports false when no email was stored", func() {
			email, ok := internal.UserEmailFromContext(context.Background())

			Expect(ok).To(BeFalse())
			Expect(email).To(BeEmpty())
		})

		It("reports false for an empty stored email", func() {
			ctx := internal.ContextWithUserEmail(context.Background(), "")

			_, ok := internal.UserEmailFromContext(ctx)

			Expect(ok).To(BeFalse())
		})
	})

	Describe("WithTimeout", func() {
		It("falls back to a default for non-positive durations", func() {
			ctx, cancel := internal.WithTimeout(context.Background(), 0)
			defer cancel()

			deadline, ok := ctx.Deadline()
			Expect(ok).To(BeTrue())
			Expect(time.Until(deadline)).To(BeNumerically(">", 0))
		})
	})
})
