package integration

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/content-sync-server/internal/status"
	"github.com/stacklok/content-sync-server/test-integration/content-sync/helpers"
)

const (
	documentPath = "content/posts/2025-03-01-hello-world.md"
	githubToken  = "ghp_integration"
)

var _ = Describe("Git Strategy", Label("git"), func() {
	var (
		fakeGitHub   *helpers.FakeGitHub
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		fakeGitHub = helpers.NewFakeGitHub(githubToken, "main")
		DeferCleanup(fakeGitHub.Close)

		serverHelper = startServer(helpers.ServerOptions{
			Strategy:    "git",
			GitHubURL:   fakeGitHub.URL(),
			GitHubToken: githubToken,
		})
	})

	Context("Publishing", func() {
		It("should commit a published item to the repository", func() {
			resp, err := serverHelper.PutItem("1", publishedItem("Hello World", "First post."))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			_ = resp.Body.Close()

			serverHelper.WaitForJobStatus("1", status.JobStatusSuccess, 10*time.Second)

			files := fakeGitHub.Files()
			Expect(files).To(HaveKey(documentPath))
			Expect(files[documentPath]).To(HavePrefix("---\n"))
			Expect(files[documentPath]).To(ContainSubstring("title: Hello World"))
			Expect(files[documentPath]).To(ContainSubstring("First post."))
			Expect(fakeGitHub.CommitMessages()).To(Equal([]string{"Publish: Hello World"}))
		})

		It("should update the same document when the item changes", func() {
			resp, err := serverHelper.PutItem("1", publishedItem("Hello World", "First post."))
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			serverHelper.WaitForJobStatus("1", status.JobStatusSuccess, 10*time.Second)

			resp, err = serverHelper.PutItem("1", publishedItem("Hello World", "Edited post."))
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()

			Eventually(func() []string {
				return fakeGitHub.CommitMessages()
			}, 10*time.Second, 50*time.Millisecond).Should(HaveLen(2))
			serverHelper.WaitForJobStatus("1", status.JobStatusSuccess, 10*time.Second)

			files := fakeGitHub.Files()
			Expect(files).To(HaveLen(1))
			Expect(files[documentPath]).To(ContainSubstring("Edited post."))
			Expect(fakeGitHub.CommitMessages()[1]).To(Equal("Update: Hello World"))
		})

		It("should leave drafts alone", func() {
			resp, err := serverHelper.PutItem("2", map[string]any{"title": "Draft", "body": "wip"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			_ = resp.Body.Close()

			Consistently(func() []string {
				return fakeGitHub.CommitMessages()
			}, 500*time.Millisecond, 50*time.Millisecond).Should(BeEmpty())

			job, err := serverHelper.GetJob("2")
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Status).To(Equal(status.JobStatusNone))
		})
	})

	Context("Deleting", func() {
		It("should remove the document when the item is trashed", func() {
			resp, err := serverHelper.PutItem("1", publishedItem("Hello World", "First post."))
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			serverHelper.WaitForJobStatus("1", status.JobStatusSuccess, 10*time.Second)

			trashed := publishedItem("Hello World", "First post.")
			trashed["status"] = "trash"
			resp, err = serverHelper.PutItem("1", trashed)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			_ = resp.Body.Close()

			serverHelper.WaitForJobStatus("1", status.JobStatusDeleted, 10*time.Second)
			Expect(fakeGitHub.Files()).NotTo(HaveKey(documentPath))
			Expect(fakeGitHub.CommitMessages()).To(ContainElement("Remove: Hello World"))
		})
	})

	Context("Failures", func() {
		It("should record a transient failure and recover on retry", func() {
			fakeGitHub.FailNextCommits(1)

			resp, err := serverHelper.PutItem("1", publishedItem("Hello World", "First post."))
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()

			job := serverHelper.WaitForJobStatus("1", status.JobStatusError, 10*time.Second)
			Expect(job.LastErrorKind).To(Equal("transient"))
			Expect(fakeGitHub.Files()).NotTo(HaveKey(documentPath))

			resp, err = serverHelper.RetryFailed()
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
			_ = resp.Body.Close()

			job = serverHelper.WaitForJobStatus("1", status.JobStatusSuccess, 10*time.Second)
			Expect(job.LastError).To(BeEmpty())
			Expect(job.RetryCount).To(BeZero())
			Expect(fakeGitHub.Files()).To(HaveKey(documentPath))
		})

		It("should report rejected credentials as an auth failure", func() {
			fakeGitHub.SetToken("rotated")

			resp, err := serverHelper.PutItem("1", publishedItem("Hello World", "First post."))
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()

			job := serverHelper.WaitForJobStatus("1", status.JobStatusError, 10*time.Second)
			Expect(job.LastErrorKind).To(Equal("auth"))

			// the token is fixed on the remote side; a manual sync publishes
			fakeGitHub.SetToken(githubToken)
			resp, err = serverHelper.SyncItem("1")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
			_ = resp.Body.Close()

			job = serverHelper.WaitForJobStatus("1", status.JobStatusSuccess, 10*time.Second)
			Expect(job.RetryCount).To(BeZero())
		})
	})
})
