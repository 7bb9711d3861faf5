package engine

import "readlater/internal/model"

// MergeFunc resolves a server record against the existing local article.
// lastKnown is the server record merged on the previous pull, if any.
type MergeFunc func(local model.Article, remote model.ServerArticle, lastKnown *model.ServerArticle) model.Article

// ServerWinsReadState takes the server's unread and archived flags and keeps
// every other local field, including the stored contents.
//
// A local flag change that has not been pushed yet is overwritten when the
// server reports an older value.
func ServerWinsReadState(local model.Article, remote model.ServerArticle, _ *model.ServerArticle) model.Article {
	merged := local
	merged.Unread = remote.Unread
	merged.Archived = remote.Archived
	merged.LastKnownServerState = &remote
	return merged
}

// fromServer builds a new local article from a server record.
func fromServer(remote model.ServerArticle) model.Article {
	return model.Article{
		URL:                  remote.URL,
		Title:                remote.Title,
		HasBody:              remote.HasBody,
		Unread:               remote.Unread,
		Archived:             remote.Archived,
		LastAccess:           remote.LastAccess,
		LastKnownServerState: &remote,
	}
}
