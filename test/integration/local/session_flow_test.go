// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package local_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/juanarrow/credentials/internal/apperror"
	"github.com/juanarrow/credentials/internal/session"
	"github.com/juanarrow/credentials/internal/store"
)

var _ = Describe("local session lifecycle", func() {
	var (
		ctx        context.Context
		dir        string
		storePath  string
		classifier *apperror.Classifier
	)

	newManager := func() (*session.Local, *store.File) {
		st, err := store.NewFile(storePath)
		Expect(err).NotTo(HaveOccurred())
		manager, err := session.NewLocal(st, session.NewArgon2idHasher(), classifier, nil)
		Expect(err).NotTo(HaveOccurred())
		return manager, st
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		dir, err = os.MkdirTemp("", "credentials-local-*")
		Expect(err).NotTo(HaveOccurred())
		storePath = filepath.Join(dir, "credentials.json")

		classifier = apperror.New(nil)
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("registers, survives a restart and logs out", func() {
		manager, st := newManager()

		outcome, err := manager.Register(ctx, session.RegistrationInfo{
			Name:     "Ada",
			Surname:  "Lovelace",
			Email:    "ada@example.com",
			Password: "secret-password",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(http.StatusCreated))
		Expect(st.Close()).To(Succeed())

		// A fresh process recovers the persisted session from disk.
		manager, st = newManager()
		Expect(manager.Recover(ctx)).To(Succeed())
		Expect(manager.User()).NotTo(BeNil())
		Expect(manager.User().Email).To(Equal("ada@example.com"))

		Expect(manager.Logout(ctx)).To(Succeed())
		Expect(st.Close()).To(Succeed())

		// After logout nothing is left to recover.
		manager, st = newManager()
		Expect(manager.Recover(ctx)).To(Succeed())
		Expect(manager.User()).To(BeNil())
		Expect(st.Close()).To(Succeed())
	})

	It("authenticates a registered account after a restart", func() {
		manager, st := newManager()
		_, err := manager.Register(ctx, session.RegistrationInfo{
			Email:    "ada@example.com",
			Password: "secret-password",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(manager.Logout(ctx)).To(Succeed())
		Expect(st.Close()).To(Succeed())

		manager, st = newManager()
		outcome, err := manager.Login(ctx, session.Credentials{
			Email:    "ada@example.com",
			Password: "secret-password",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(http.StatusOK))
		Expect(st.Close()).To(Succeed())
	})

	It("rejects a duplicate registration without touching the table", func() {
		manager, st := newManager()
		defer st.Close()

		_, err := manager.Register(ctx, session.RegistrationInfo{
			Email:    "ada@example.com",
			Password: "secret-password",
		})
		Expect(err).NotTo(HaveOccurred())

		outcome, err := manager.Register(ctx, session.RegistrationInfo{
			Email:    "ada@example.com",
			Password: "other-password",
		})
		Expect(err).To(HaveOccurred())
		Expect(outcome.Status).To(Equal(http.StatusForbidden))

		// The original credentials still work.
		outcome, err = manager.Login(ctx, session.Credentials{
			Email:    "ada@example.com",
			Password: "secret-password",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Status).To(Equal(http.StatusOK))
	})

	It("publishes user changes to watchers", func() {
		manager, st := newManager()
		defer st.Close()

		updates, cancel := manager.WatchUser().Watch()
		defer cancel()

		_, err := manager.Register(ctx, session.RegistrationInfo{
			Email:    "ada@example.com",
			Password: "secret-password",
		})
		Expect(err).NotTo(HaveOccurred())

		Eventually(updates).Should(Receive(Not(BeNil())))

		Expect(manager.Logout(ctx)).To(Succeed())
		Eventually(updates).Should(Receive(BeNil()))
	})
})
