package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func dashboardBody() string {
	return `<main class="workspace" id="workspace">
<header class="workspace-header">
<h1>RationBook</h1>
<nav>
<a href="/app">Formulations</a>
<a href="/logout">Sign out</a>
</nav>
</header>
<section id="workspace-content" class="workspace-content">
<p>Select a formulation to review its ingredient mix and cost breakdown, or create a new one from the catalog.</p>
</section>
</main>`
}

// Dashboard renders the primary workspace page.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, documentShell("Workspace · RationBook", dashboardBody()))
		return err
	})
}

// DashboardPartial renders only the workspace fragment for HTMX swaps.
func DashboardPartial() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardBody())
		return err
	})
}
