package integration

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/content-sync-server/internal/status"
	"github.com/stacklok/content-sync-server/test-integration/content-sync/helpers"
)

const syndicationKey = "forem-integration"

var _ = Describe("Dual Strategy", Label("dual"), func() {
	var (
		fakeGitHub      *helpers.FakeGitHub
		fakeSyndication *helpers.FakeSyndication
		serverHelper    *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		fakeGitHub = helpers.NewFakeGitHub(githubToken, "main")
		DeferCleanup(fakeGitHub.Close)
		fakeSyndication = helpers.NewFakeSyndication(syndicationKey)
		DeferCleanup(fakeSyndication.Close)

		serverHelper = startServer(helpers.ServerOptions{
			Strategy:       "dual",
			GitHubURL:      fakeGitHub.URL(),
			GitHubToken:    githubToken,
			SyndicationURL: fakeSyndication.URL(),
			SyndicationKey: syndicationKey,
		})
	})

	It("should republish opted-in items with a canonical link", func() {
		item := publishedItem("Hello World", "First post.")
		item["syndicationOptIn"] = true
		resp, err := serverHelper.PutItem("1", item)
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()

		serverHelper.WaitForJobStatus("1", status.JobStatusSuccess, 10*time.Second)

		Expect(fakeGitHub.Files()).To(HaveKey(documentPath))
		articles := fakeSyndication.Articles()
		Expect(articles).To(HaveLen(1))
		Expect(articles[0].Title).To(Equal("Hello World"))
		Expect(articles[0].CanonicalURL).To(Equal("https://blog.example.com/posts/hello-world/"))
		Expect(articles[0].BodyMarkdown).To(ContainSubstring("originally published at"))
		Expect(articles[0].Tags).To(Equal([]string{"go", "testing"}))
	})

	It("should update the existing article on the next sync", func() {
		item := publishedItem("Hello World", "First post.")
		item["syndicationOptIn"] = true
		resp, err := serverHelper.PutItem("1", item)
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()
		serverHelper.WaitForJobStatus("1", status.JobStatusSuccess, 10*time.Second)

		item["body"] = "Edited post."
		resp, err = serverHelper.PutItem("1", item)
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()

		Eventually(fakeSyndication.Updates, 10*time.Second, 50*time.Millisecond).Should(Equal(1))
		articles := fakeSyndication.Articles()
		Expect(articles).To(HaveLen(1))
		Expect(articles[0].BodyMarkdown).To(ContainSubstring("Edited post."))
	})

	It("should only commit items that did not opt in", func() {
		resp, err := serverHelper.PutItem("1", publishedItem("Hello World", "First post."))
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()

		serverHelper.WaitForJobStatus("1", status.JobStatusSuccess, 10*time.Second)
		Expect(fakeGitHub.Files()).To(HaveKey(documentPath))
		Expect(fakeSyndication.Articles()).To(BeEmpty())
	})

	It("should keep the commit and report a partial success when syndication fails", func() {
		fakeSyndication.Close()

		item := publishedItem("Hello World", "First post.")
		item["syndicationOptIn"] = true
		resp, err := serverHelper.PutItem("1", item)
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()

		job := serverHelper.WaitForJobStatus("1", status.JobStatusSuccess, 10*time.Second)
		Expect(job.Message).To(ContainSubstring("syndication failed"))
		Expect(fakeGitHub.Files()).To(HaveKey(documentPath))
	})
})

var _ = Describe("Disabled Strategy", Label("disabled"), func() {
	var serverHelper *helpers.ServerTestHelper

	BeforeEach(func() {
		serverHelper = startServer(helpers.ServerOptions{Strategy: "disabled"})
	})

	It("should complete jobs without publishing", func() {
		resp, err := serverHelper.PutItem("1", publishedItem("Hello World", "First post."))
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()

		job := serverHelper.WaitForJobStatus("1", status.JobStatusSuccess, 10*time.Second)
		Expect(job.Message).To(Equal("publishing is disabled"))
	})
})
