package github

// CommitResult describes a commit created on the branch
type CommitResult struct {
	// SHA is the new commit
	SHA string `json:"sha"`
	// URL is the commit's web page
	URL string `json:"url"`
	// ParentSHA is the branch head the commit was built on
	ParentSHA string `json:"parentSha,omitempty"`
	// TreeSHA is the new tree
	TreeSHA string `json:"treeSha,omitempty"`
	// Files lists the committed paths in sorted order
	Files []string `json:"files,omitempty"`
}

// File is a repository file read through the contents API
type File struct {
	Path    string
	SHA     string
	Content []byte
}

// Entry is a directory listing entry
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
	// Type is "file", "dir", "symlink" or "submodule"
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type refResponse struct {
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

type commitResponse struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Tree    struct {
		SHA string `json:"sha"`
	} `json:"tree"`
}

type shaResponse struct {
	SHA string `json:"sha"`
}

type blobRequest struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type treeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

type treeRequest struct {
	BaseTree string      `json:"base_tree"`
	Tree     []treeEntry `json:"tree"`
}

type commitRequest struct {
	Message string   `json:"message"`
	Tree    string   `json:"tree"`
	Parents []string `json:"parents"`
}

type updateRefRequest struct {
	SHA   string `json:"sha"`
	Force bool   `json:"force"`
}

type contentResponse struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type deleteFileRequest struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

type deleteFileResponse struct {
	Commit commitResponse `json:"commit"`
}
