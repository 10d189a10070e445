package tui

// renderFooter renders the key binding help footer at full terminal width.
// When app.showHelp is true, shows all key bindings and the column legend;
// otherwise a brief hint.
func renderFooter(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	if !app.showHelp {
		return StyleDim.Width(width).Render("? for help")
	}
	text := helpText
	if legend := app.rows.legend(); legend != "" {
		text += "\n" + legend
	}
	return StyleDim.Width(width).Render(text)
}
