package views

import (
	"strconv"

	"github.com/a-h/templ"

	"folio.dev/internal/imageloader"
)

// ImageProps describes one image instance
type ImageProps struct {
	Src      string
	Fallback string
	Alt      string
	Class    string
}

// imageView is what the image template prints for one ImageProps
type imageView struct {
	Src        string
	Fallback   string
	State      string
	MaxRetries string
	RetryParam string
	// Pending marks an unprobed image whose policy runs in the browser
	Pending bool
	// Missing renders the placeholder instead of an img
	Missing bool
}

func (props ImageProps) view(env Env) imageView {
	if props.Src == "" {
		return imageView{Missing: true}
	}
	if env.Images != nil {
		if res, ok := env.Images.Lookup(props.Src); ok {
			if !res.Available() {
				return imageView{Missing: true}
			}
			return imageView{Src: env.Asset(res.Source), State: res.Phase.String()}
		}
	}

	v := imageView{
		Src:        env.Asset(props.Src),
		State:      imageloader.PhaseLoading.String(),
		MaxRetries: strconv.Itoa(max(env.MaxRetries, 0)),
		RetryParam: imageloader.RetryParam,
		Pending:    true,
	}
	if props.Fallback != "" && props.Fallback != props.Src {
		v.Fallback = env.Asset(props.Fallback)
	}
	return v
}

// Image renders an image through the load policy. A settled result from the
// image service decides what is shown: the loaded source, or a placeholder
// once every source failed. Unresolved images are emitted with their policy as
// data attributes so the page script can apply it in the browser.
func Image(env Env, props ImageProps) templ.Component {
	return imageTag(props, props.view(env))
}
