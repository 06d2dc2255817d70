package web

import (
	"html/template"

	"github.com/repochat/web/internal/markdown"
	"github.com/repochat/web/internal/model/badge"
	"github.com/repochat/web/internal/model/chat"
	"github.com/repochat/web/internal/model/repo"
	sessionService "github.com/repochat/web/internal/service/session"
)

const (
	analyzeLabel       = "Analyze Repository"
	analyzingLabel     = "Analyzing Repository..."
	chatPlaceholder    = "Ask a question about this repository..."
	repoURLPlaceholder = "https://github.com/username/repository"
)

type pageView struct {
	SessionID       string
	RepoURL         string
	Analyzing       bool
	AnalyzeLabel    string
	Error           string
	URLPlaceholder  string
	ChatPlaceholder string
	Repo            *repoView
	Messages        []messageView
	Awaiting        bool
}

type repoView struct {
	SummaryHTML template.HTML
	Languages   []languageView
	Info        *repo.Info
	Message     string
}

type languageView struct {
	Name    string
	Count   int
	Classes string
}

type messageView struct {
	ID      int
	IsUser  bool
	IsError bool
	HTML    template.HTML
	Time    string
}

// views 把会话快照转换成模板数据
type views struct {
	summary markdown.Engine
	chat    markdown.Engine
	badges  badge.Store
}

func (v views) page(snap sessionService.Snapshot) pageView {
	page := pageView{
		SessionID:       snap.ID,
		RepoURL:         snap.RepoURL,
		Analyzing:       snap.Analyzing,
		AnalyzeLabel:    analyzeLabel,
		Error:           snap.AnalyzeError,
		URLPlaceholder:  repoURLPlaceholder,
		ChatPlaceholder: chatPlaceholder,
		Awaiting:        snap.Awaiting(),
	}
	if snap.Analyzing {
		page.AnalyzeLabel = analyzingLabel
	}
	if snap.Repo != nil {
		page.Repo = v.repo(snap.Repo)
		page.Messages = v.messages(snap.Messages)
	}
	return page
}

func (v views) repo(data *repo.Data) *repoView {
	out := &repoView{
		SummaryHTML: markdown.HTML(v.summary, data.Summary),
		Info:        data.Info,
		Message:     data.Message,
	}
	for _, lang := range data.SortedLanguages() {
		out.Languages = append(out.Languages, languageView{
			Name:    lang.Name,
			Count:   lang.Count,
			Classes: v.badges.Lookup(lang.Name).Classes,
		})
	}
	return out
}

func (v views) messages(msgs []chat.Message) []messageView {
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageView{
			ID:      m.ID,
			IsUser:  m.IsUser(),
			IsError: m.IsError,
			HTML:    markdown.HTML(v.chat, m.Content),
			Time:    m.CreatedAt.Format("15:04"),
		})
	}
	return out
}
