package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/go-viper/mapstructure/v2"

	"github.com/conneroisu/minplay/internal/errors"
	"github.com/conneroisu/minplay/internal/options"
)

// Settings is the typed form of an options document as the esbuild adapter
// understands it. Keys follow terser's naming.
type Settings struct {
	Compress  bool           `mapstructure:"-"`
	Mangle    bool           `mapstructure:"-"`
	Ecma      int            `mapstructure:"ecma"`
	Module    bool           `mapstructure:"module"`
	KeepNames bool           `mapstructure:"keep_names"`
	Output    OutputSettings `mapstructure:"output"`
}

// OutputSettings controls code generation.
type OutputSettings struct {
	Comments interface{} `mapstructure:"comments"`
	Beautify bool        `mapstructure:"beautify"`
}

// ESBuild minifies JavaScript with esbuild's transform API.
type ESBuild struct{}

// NewESBuild creates the esbuild-backed engine.
func NewESBuild() *ESBuild {
	return &ESBuild{}
}

// Minify implements Engine. It consumes the compress and mangle keys from
// opts while decoding them.
func (e *ESBuild) Minify(ctx context.Context, source string, opts options.Value) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	settings, err := DecodeSettings(opts)
	if err != nil {
		return "", err
	}

	result := api.Transform(source, transformOptions(settings))
	if len(result.Errors) > 0 {
		return "", diagnostic(result.Errors)
	}
	return string(result.Code), nil
}

// DecodeSettings converts an options map into Settings. compress and mangle
// accept either a boolean or an object of sub-options (which enables them);
// both keys are removed from opts. Unknown keys are an error.
func DecodeSettings(opts options.Value) (Settings, error) {
	settings := Settings{Compress: true, Mangle: true, Ecma: 2020}

	for key, dst := range map[string]*bool{"compress": &settings.Compress, "mangle": &settings.Mangle} {
		raw, ok := opts[key]
		if !ok {
			continue
		}
		on, err := toggle(key, raw)
		if err != nil {
			return Settings{}, err
		}
		*dst = on
		delete(opts, key)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &settings,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return Settings{}, errors.NewInternalError(errors.ErrCodeInternalError, "building options decoder", err)
	}
	if err := decoder.Decode(map[string]interface{}(opts)); err != nil {
		return Settings{}, errors.NewDiagnostic("unsupported minifier options: "+flatten(err), 0, 0)
	}
	return settings, nil
}

func toggle(key string, v interface{}) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case map[string]interface{}:
		return true, nil
	case nil:
		return false, nil
	default:
		return false, errors.NewDiagnostic(fmt.Sprintf("option %q must be a boolean or an object", key), 0, 0)
	}
}

func flatten(err error) string {
	return strings.Join(strings.Fields(err.Error()), " ")
}

func transformOptions(s Settings) api.TransformOptions {
	opts := api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  !s.Output.Beautify,
		MinifySyntax:      s.Compress,
		MinifyIdentifiers: s.Mangle,
		KeepNames:         s.KeepNames,
		Target:            target(s.Ecma),
		Charset:           api.CharsetUTF8,
		LegalComments:     legalComments(s.Output.Comments),
	}
	if s.Module {
		opts.Format = api.FormatESModule
	}
	return opts
}

func target(ecma int) api.Target {
	switch ecma {
	case 5:
		return api.ES5
	case 6, 2015:
		return api.ES2015
	case 7, 2016:
		return api.ES2016
	case 8, 2017:
		return api.ES2017
	case 9, 2018:
		return api.ES2018
	case 10, 2019:
		return api.ES2019
	case 11, 2020:
		return api.ES2020
	case 12, 2021:
		return api.ES2021
	case 13, 2022:
		return api.ES2022
	default:
		return api.ESNext
	}
}

func legalComments(v interface{}) api.LegalComments {
	switch t := v.(type) {
	case bool:
		if t {
			return api.LegalCommentsInline
		}
	case string:
		if t == "all" || t == "some" {
			return api.LegalCommentsInline
		}
	}
	return api.LegalCommentsNone
}

func diagnostic(msgs []api.Message) error {
	first := msgs[0]
	text := first.Text
	if len(msgs) > 1 {
		text = fmt.Sprintf("%s (and %d more)", text, len(msgs)-1)
	}
	if first.Location == nil {
		return errors.NewDiagnostic(text, 0, 0)
	}
	return errors.NewDiagnostic(text, first.Location.Line, first.Location.Column+1)
}
