package service

import "github.com/pressroom/pressroom/internal/model"

// CanRead reports whether viewer may see the article.
// Published articles are public; drafts are visible only to their author.
func CanRead(viewer *model.Identity, article *model.Article) bool {
	if !article.IsDraft() {
		return true
	}
	return viewer.Is(article.AuthorID)
}

// CanModify reports whether actor may update or delete the article.
func CanModify(actor *model.Identity, article *model.Article) bool {
	return actor.Is(article.AuthorID)
}
