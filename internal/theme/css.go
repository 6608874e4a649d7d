// internal/theme/css.go
package theme

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/lucentchat/lucent/internal/models"
)

// CSSComponent renders the effective theme as CSS custom properties plus a
// background layer rule, for inclusion in the page head. Consumers re-render
// by re-fetching it after a bus notification.
func CSSComponent(state State) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, RenderCSS(state))
		return err
	})
}

// RenderCSS builds the stylesheet text for the effective theme.
func RenderCSS(state State) string {
	var b strings.Builder

	active := state.ActiveColors()
	b.WriteString(":root{")
	writeColorSetVars(&b, "", active)
	fmt.Fprintf(&b, "--theme-mode:%s;", state.Mode)
	b.WriteString("}\n")

	b.WriteString(":root{")
	writeColorSetVars(&b, "light-", state.LightTheme)
	writeColorSetVars(&b, "dark-", state.DarkTheme)
	b.WriteString("}\n")

	if state.BackgroundImage != nil {
		opacity := state.BackgroundOpacity
		if state.AutoDimDark && state.Mode == models.ModeDark {
			// Dim the image rather than the whole layer so text contrast in
			// dark mode is preserved.
			opacity = opacity * 0.5
		}
		fmt.Fprintf(&b,
			".chat-background{background-image:url(%q);opacity:%.2f;}\n",
			*state.BackgroundImage, opacity)
	}

	return b.String()
}

func writeColorSetVars(b *strings.Builder, prefix string, colors models.ThemeColorSet) {
	fmt.Fprintf(b, "--theme-%sbackground:%s;", prefix, colors.BackgroundColor)
	fmt.Fprintf(b, "--theme-%sprimary:%s;", prefix, colors.PrimaryColor)
	fmt.Fprintf(b, "--theme-%stext:%s;", prefix, colors.TextColor)
	fmt.Fprintf(b, "--theme-%saccent:%s;", prefix, colors.AccentColor)
	fmt.Fprintf(b, "--theme-%suser-bubble:%s;", prefix, colors.UserBubbleColor)
	fmt.Fprintf(b, "--theme-%suser-bubble-opacity:%.2f;", prefix, colors.UserBubbleOpacity)
	fmt.Fprintf(b, "--theme-%sai-bubble:%s;", prefix, colors.AIBubbleColor)
	fmt.Fprintf(b, "--theme-%sai-bubble-opacity:%.2f;", prefix, colors.AIBubbleOpacity)
	fmt.Fprintf(b, "--theme-%suser-text:%s;", prefix, colors.UserTextColor)
	fmt.Fprintf(b, "--theme-%sai-text:%s;", prefix, colors.AITextColor)
}
