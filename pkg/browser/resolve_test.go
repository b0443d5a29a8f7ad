package browser_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/materials/pkg/browser"
	"github.com/entrhq/materials/pkg/browser/browsertest"
	"github.com/entrhq/materials/pkg/logging"
)

var log = logging.Discard()

func TestResolveActivePage_NoSession(t *testing.T) {
	_, err := browser.ResolveActivePage(nil, log)
	assert.ErrorIs(t, err, browser.ErrNoSession)

	_, err = browser.ResolveActivePage(&browsertest.Session{}, log)
	assert.ErrorIs(t, err, browser.ErrNoSession)
}

func TestResolveActivePage_NoPages(t *testing.T) {
	s := &browsertest.Session{Ctxs: []*browsertest.Context{{}, {}}}
	_, err := browser.ResolveActivePage(s, log)
	assert.ErrorIs(t, err, browser.ErrNoPages)
}

func TestResolveActivePage_PrefersUserPage(t *testing.T) {
	internal := &browsertest.Page{KnownURL: "chrome://newtab/"}
	app := &browsertest.Page{KnownURL: "https://site/app"}

	tests := []struct {
		name  string
		pages []*browsertest.Page
	}{
		{"internal last", []*browsertest.Page{app, internal}},
		{"internal first", []*browsertest.Page{internal, app}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := browser.ResolveActivePage(browsertest.NewSession(tt.pages...), log)
			require.NoError(t, err)
			assert.Same(t, app, got)
		})
	}
}

func TestResolveActivePage_LastUserPageAcrossContexts(t *testing.T) {
	first := &browsertest.Page{KnownURL: "https://a.test/"}
	second := &browsertest.Page{KnownURL: "https://b.test/"}
	ext := &browsertest.Page{KnownURL: "chrome-extension://x/options.html"}
	s := &browsertest.Session{Ctxs: []*browsertest.Context{
		{PageList: []*browsertest.Page{first}},
		{PageList: []*browsertest.Page{second, ext}},
	}}

	got, err := browser.ResolveActivePage(s, log)
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestResolveActivePage_AllInternal(t *testing.T) {
	a := &browsertest.Page{KnownURL: "chrome://settings"}
	b := &browsertest.Page{KnownURL: "devtools://devtools/inspector.html"}

	got, err := browser.ResolveActivePage(browsertest.NewSession(a, b), log)
	require.NoError(t, err)
	assert.Same(t, b, got)
}

func TestResolveActivePage_RepairsStaleHandle(t *testing.T) {
	stale := &browsertest.Page{KnownURL: "", Href: "https://portal.test/reports"}
	ctx := &browsertest.Context{PageList: []*browsertest.Page{stale}}
	s := &browsertest.Session{Ctxs: []*browsertest.Context{ctx}}

	got, err := browser.ResolveActivePage(s, log)
	require.NoError(t, err)

	require.Len(t, ctx.Created, 1)
	fresh := ctx.Created[0]
	assert.Same(t, fresh, got)
	assert.Equal(t, []string{"goto https://portal.test/reports domcontentloaded"}, fresh.Calls())
}

func TestResolveActivePage_RepairsBlankHandleInFirstContext(t *testing.T) {
	first := &browsertest.Context{}
	stale := &browsertest.Page{KnownURL: "about:blank", Href: "https://portal.test/"}
	s := &browsertest.Session{Ctxs: []*browsertest.Context{first, {PageList: []*browsertest.Page{stale}}}}

	got, err := browser.ResolveActivePage(s, log)
	require.NoError(t, err)
	require.Len(t, first.Created, 1)
	assert.Same(t, first.Created[0], got)
}

func TestResolveActivePage_RepairFailureKeepsOriginal(t *testing.T) {
	stale := &browsertest.Page{Href: "https://portal.test/"}

	t.Run("navigation fails", func(t *testing.T) {
		ctx := &browsertest.Context{
			PageList: []*browsertest.Page{stale},
			NewPageFunc: func() (*browsertest.Page, error) {
				return &browsertest.Page{GotoErr: errors.New("timeout")}, nil
			},
		}
		got, err := browser.ResolveActivePage(&browsertest.Session{Ctxs: []*browsertest.Context{ctx}}, log)
		require.NoError(t, err)
		assert.Same(t, stale, got)
	})

	t.Run("new page fails", func(t *testing.T) {
		ctx := &browsertest.Context{
			PageList:    []*browsertest.Page{stale},
			NewPageFunc: func() (*browsertest.Page, error) { return nil, errors.New("closed") },
		}
		got, err := browser.ResolveActivePage(&browsertest.Session{Ctxs: []*browsertest.Context{ctx}}, log)
		require.NoError(t, err)
		assert.Same(t, stale, got)
	})
}

func TestResolveActivePage_StaleWithoutRealURL(t *testing.T) {
	blank := &browsertest.Page{KnownURL: "about:blank", EvalErr: errors.New("detached")}
	ctx := &browsertest.Context{PageList: []*browsertest.Page{blank}}

	got, err := browser.ResolveActivePage(&browsertest.Session{Ctxs: []*browsertest.Context{ctx}}, log)
	require.NoError(t, err)
	assert.Same(t, blank, got)
	assert.Empty(t, ctx.Created)
}

func TestResolvePageURL(t *testing.T) {
	assert.Equal(t, "https://known/", browser.ResolvePageURL(&browsertest.Page{KnownURL: "https://known/", Href: "https://other/"}, log))
	assert.Equal(t, "https://probed/", browser.ResolvePageURL(&browsertest.Page{Href: "https://probed/"}, log))
	assert.Equal(t, "", browser.ResolvePageURL(&browsertest.Page{EvalErr: errors.New("x")}, log))
}

func TestResolvePageTitle(t *testing.T) {
	t.Run("title call", func(t *testing.T) {
		p := &browsertest.Page{TitleValue: "Reports", DocTitle: "ignored"}
		assert.Equal(t, "Reports", browser.ResolvePageTitle(p, log))
	})

	t.Run("title error falls back to probe", func(t *testing.T) {
		p := &browsertest.Page{TitleErr: errors.New("target closed"), DocTitle: "報表系統"}
		assert.Equal(t, "報表系統", browser.ResolvePageTitle(p, log))
	})

	t.Run("everything fails", func(t *testing.T) {
		p := &browsertest.Page{TitleErr: errors.New("x"), EvalErr: errors.New("y")}
		assert.Equal(t, "", browser.ResolvePageTitle(p, log))
	})
}

func TestResolvePageTitle_Timeout(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the title timeout")
	}
	p := &browsertest.Page{TitleValue: "late", TitleDelay: browser.TitleTimeout + 2*time.Second, DocTitle: "probed"}

	start := time.Now()
	assert.Equal(t, "probed", browser.ResolvePageTitle(p, log))
	assert.Less(t, time.Since(start), browser.TitleTimeout+time.Second)
}

func TestCountFrames(t *testing.T) {
	main := &browsertest.Frame{Children: []*browsertest.Frame{
		{FrameURL: "https://a/", Children: []*browsertest.Frame{{FrameURL: "about:blank"}}},
		{FrameURL: "https://b/"},
	}}
	assert.Equal(t, 3, browser.CountFrames(&browsertest.Page{Main: main}))
	assert.Equal(t, 0, browser.CountFrames(&browsertest.Page{}))
}
