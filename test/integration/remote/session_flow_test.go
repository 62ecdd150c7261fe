// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/juanarrow/credentials/internal/apperror"
	"github.com/juanarrow/credentials/internal/gateway"
	"github.com/juanarrow/credentials/internal/session"
	"github.com/juanarrow/credentials/internal/store"
	"github.com/juanarrow/credentials/internal/store/storetest"
)

var _ = Describe("remote session lifecycle", func() {
	var (
		ctx        context.Context
		provider   *providerStub
		server     *httptest.Server
		st         *storetest.Memory
		classifier *apperror.Classifier
	)

	newManager := func() *session.Remote {
		gw, err := gateway.NewHTTP(server.URL, server.Client(), nil)
		Expect(err).NotTo(HaveOccurred())
		manager, err := session.NewRemote(gw, st, classifier, nil)
		Expect(err).NotTo(HaveOccurred())
		return manager
	}

	BeforeEach(func() {
		ctx = context.Background()
		provider = newProviderStub()
		server = provider.server()
		st = storetest.NewMemory()
		classifier = apperror.New(nil)
	})

	AfterEach(func() {
		server.Close()
	})

	It("registers with profile fields in two phases", func() {
		manager := newManager()

		outcome, err := manager.Register(ctx, session.RegistrationInfo{
			Name:     "Ada",
			Surname:  "Lovelace",
			Email:    "ada@example.com",
			Password: "secret-password",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(http.StatusCreated))
		Expect(outcome.User.Name).To(Equal("Ada"))

		// The provider applied the second-phase profile update.
		account, ok := provider.account("ada@example.com")
		Expect(ok).To(BeTrue())
		Expect(account.Name).To(Equal("Ada"))
		Expect(account.Surname).To(Equal("Lovelace"))

		// The issued token is persisted for later recovery.
		token, err := st.Get(ctx, store.KeyToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(token).NotTo(BeEmpty())
	})

	It("recovers the session from a persisted token", func() {
		manager := newManager()
		_, err := manager.Register(ctx, session.RegistrationInfo{
			Email:    "ada@example.com",
			Password: "secret-password",
		})
		Expect(err).NotTo(HaveOccurred())

		// A fresh manager over the same store plays the part of a
		// restarted client.
		manager = newManager()
		Expect(manager.Recover(ctx)).To(Succeed())
		Expect(manager.User()).NotTo(BeNil())
		Expect(manager.User().Email).To(Equal("ada@example.com"))
	})

	It("clears a token the provider no longer honours", func() {
		manager := newManager()
		_, err := manager.Register(ctx, session.RegistrationInfo{
			Email:    "ada@example.com",
			Password: "secret-password",
		})
		Expect(err).NotTo(HaveOccurred())

		provider.revoke("ada@example.com")

		manager = newManager()
		Expect(manager.Recover(ctx)).NotTo(Succeed())
		Expect(manager.User()).To(BeNil())

		_, err = st.Get(ctx, store.KeyToken)
		Expect(err).To(MatchError(store.ErrNotFound))
	})

	It("reports bad credentials without queueing errors", func() {
		manager := newManager()

		outcome, err := manager.Login(ctx, session.Credentials{
			Email:    "nobody@example.com",
			Password: "wrong",
		})
		Expect(err).To(HaveOccurred())
		Expect(outcome.Status).To(Equal(http.StatusUnauthorized))

		active := classifier.Active()
		Expect(active).NotTo(BeNil())
		Expect(active.Kind).To(Equal(apperror.KindAuth))

		// A second failure replaces the active error instead of
		// stacking behind it.
		_, err = manager.Login(ctx, session.Credentials{
			Email:    "nobody@example.com",
			Password: "wrong again",
		})
		Expect(err).To(HaveOccurred())
		Expect(classifier.Active()).NotTo(BeNil())
	})

	It("logs in and out against the provider", func() {
		manager := newManager()
		_, err := manager.Register(ctx, session.RegistrationInfo{
			Email:    "ada@example.com",
			Password: "secret-password",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(manager.Logout(ctx)).To(Succeed())
		Expect(manager.User()).To(BeNil())

		outcome, err := manager.Login(ctx, session.Credentials{
			Email:    "ada@example.com",
			Password: "secret-password",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(http.StatusOK))
		Expect(manager.User().Email).To(Equal("ada@example.com"))
	})
})
