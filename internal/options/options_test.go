package options

import (
	"testing"

	"github.com/mcfdebug/mcfdebug/internal/diagnostics"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FillsDefaults(t *testing.T) {
	o := Options{InputDir: "in", OutputDir: "out"}
	o.Normalize()
	require.Equal(t, DefaultNamespace, o.Namespace)
	require.Equal(t, "mcfdebug", o.DatapackName)
	require.Equal(t, "info", o.LogLevel)
}

func TestNormalize_PreservesExplicitValues(t *testing.T) {
	o := Options{InputDir: "in", OutputDir: "out", Namespace: "dbg", DatapackName: "mypack", LogLevel: "debug"}
	o.Normalize()
	require.Equal(t, "dbg", o.Namespace)
	require.Equal(t, "mypack", o.DatapackName)
	require.Equal(t, "debug", o.LogLevel)
}

func TestValidate_RequiresInputAndOutput(t *testing.T) {
	o := Options{Namespace: "mcfd"}
	d := o.Validate()
	require.NotNil(t, d)
	require.Equal(t, diagnostics.KindConfigError, d.Kind)
}

func TestValidate_RejectsOversizedNamespace(t *testing.T) {
	o := Options{InputDir: "in", OutputDir: "out", Namespace: "toolongns"}
	d := o.Validate()
	require.NotNil(t, d)
}

func TestValidate_RejectsBadNamespaceCharset(t *testing.T) {
	o := Options{InputDir: "in", OutputDir: "out", Namespace: "Bad-NS"}
	d := o.Validate()
	require.NotNil(t, d)
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	o := Options{InputDir: "in", OutputDir: "out", Namespace: "mcfd", LogLevel: "verbose"}
	d := o.Validate()
	require.NotNil(t, d)
}

func TestValidate_AcceptsWellFormedOptions(t *testing.T) {
	o := Options{InputDir: "in", OutputDir: "out", Namespace: "mcfd", LogLevel: "info"}
	require.Nil(t, o.Validate())
}
