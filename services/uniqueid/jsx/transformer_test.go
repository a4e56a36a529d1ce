// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package jsx

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importLine = "import { useUniqueInlineId } from '@inline-svg-unique-id/react';\n"

func transform(t *testing.T, src, path string, opts ...Option) *Result {
	t.Helper()
	res, err := NewTransformer(opts...).Transform(context.Background(), []byte(src), path)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestTransform_ArrowWithDefinitionAndIRI(t *testing.T) {
	src := `const Icon = () => (
  <svg>
    <defs>
      <linearGradient id="grad1" />
    </defs>
    <rect fill="url(#grad1)" />
  </svg>
);
`
	want := importLine + `const Icon = () => {
  const _id = useUniqueInlineId();
  return (
  <svg>
    <defs>
      <linearGradient id={_id} />
    </defs>
    <rect fill={` + "`url(#${_id})`" + `} />
  </svg>
);
};
`
	res := transform(t, src, "Icon.jsx")
	assert.True(t, res.Changed)
	assert.Equal(t, want, string(res.Output))

	require.Len(t, res.Components, 1)
	c := res.Components[0]
	assert.Equal(t, "Icon", c.Name)
	assert.Equal(t, 1, c.Line)
	assert.Equal(t, 1, c.Containers)
	assert.Equal(t, 1, c.Declarations)
	assert.Equal(t, 1, c.References)
	require.Len(t, c.Identifiers, 1)
	assert.Equal(t, "grad1", c.Identifiers[0].Value)
	assert.Equal(t, "_id", c.Identifiers[0].Token)
	assert.Equal(t, 1, res.Identifiers())
}

func TestTransform_FunctionDeclarationWithCrossLink(t *testing.T) {
	src := `function Icon() {
  return (
    <svg>
      <circle id="a" />
      <use xlinkHref="#a" />
    </svg>
  );
}
`
	want := importLine + `function Icon() {
  const _id = useUniqueInlineId();
  return (
    <svg>
      <circle id={_id} />
      <use xlinkHref={` + "`#${_id}`" + `} />
    </svg>
  );
}
`
	res := transform(t, src, "Icon.js")
	assert.Equal(t, want, string(res.Output))
}

func TestTransform_NamespacedCrossLink(t *testing.T) {
	src := `function Icon() {
  return <svg><circle id="a" /><use xlink:href="#a" /></svg>;
}
`
	res := transform(t, src, "Icon.jsx")
	assert.Contains(t, string(res.Output), "<use xlink:href={`#${_id}`} />")
}

func TestTransform_FragmentOnlyOnCrossLink(t *testing.T) {
	src := `function Icon() {
  return <svg><circle id="a" /><g data-ref="#a" /></svg>;
}
`
	res := transform(t, src, "Icon.jsx")
	assert.Contains(t, string(res.Output), `<g data-ref="#a" />`)
	assert.Contains(t, string(res.Output), "<circle id={_id} />")
}

func TestTransform_PlainHrefCrossLinks(t *testing.T) {
	src := `function Icon() {
  return (
    <svg>
      <linearGradient id="grad1" href="#grad2" />
      <linearGradient id="grad2" href="#grad1" />
    </svg>
  );
}
`
	out := string(transform(t, src, "Icon.jsx").Output)
	assert.Contains(t, out, "<linearGradient id={_id} href={`#${_id2}`} />")
	assert.Contains(t, out, "<linearGradient id={_id2} href={`#${_id}`} />")
}

func TestTransform_ContainerIDKept(t *testing.T) {
	src := `function Logo() {
  return <svg id="logo"><use xlinkHref="#logo" /></svg>;
}
`
	res, err := NewTransformer().Transform(context.Background(), []byte(src), "Logo.jsx")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, src, string(res.Output))
}

func TestTransform_ContainerIDKeptWithInnerIDs(t *testing.T) {
	src := `function Logo() {
  return <svg id="logo" clipPath="url(#c)"><clipPath id="c" /></svg>;
}
`
	out := string(transform(t, src, "Logo.jsx").Output)
	assert.Contains(t, out, "<svg id=\"logo\" clipPath={`url(#${_id})`}><clipPath id={_id} /></svg>")
}

func TestTransform_ReferenceBeforeDeclaration(t *testing.T) {
	src := `function Icon() {
  return <svg><rect mask="url(#m)" /><mask id="m" /></svg>;
}
`
	res := transform(t, src, "Icon.jsx")
	assert.Contains(t, string(res.Output), "<rect mask={`url(#${_id})`} /><mask id={_id} />")
}

func TestTransform_StyleText(t *testing.T) {
	src := `function Icon() {
  return (
    <svg>
      <style>{'.el1 { fill: url(#grad1); }'}</style>
      <linearGradient id="grad1" />
    </svg>
  );
}
`
	res := transform(t, src, "Icon.jsx")
	assert.Contains(t, string(res.Output),
		"<style>{'.el1 { fill: ' + `url(#${_id})` + '; }'}</style>")
}

func TestTransform_StyleTextKeepsQuoteAndWrapsConcatenation(t *testing.T) {
	src := `function Icon(p) {
  return (
    <svg>
      <style>{p.dark ? ".a{fill:url(#g)}" : ""}</style>
      <linearGradient id="g" />
    </svg>
  );
}
`
	res := transform(t, src, "Icon.jsx")
	assert.Contains(t, string(res.Output),
		"p.dark ? (\".a{fill:\" + `url(#${_id})` + \"}\") : \"\"")
}

func TestTransform_StyleObjectKeysUntouched(t *testing.T) {
	src := `function Icon() {
  return (
    <svg>
      <style>{css({'url(#a)': 1, fill: 'url(#a)'})}</style>
      <path id="a" />
    </svg>
  );
}
`
	res := transform(t, src, "Icon.jsx")
	out := string(res.Output)
	assert.Contains(t, out, "css({'url(#a)': 1, fill: ")
	assert.Contains(t, out, "`url(#${_id})`")

	again, err := NewTransformer().Transform(context.Background(), res.Output, "Icon.jsx")
	require.NoError(t, err, "rewritten source must still parse")
	assert.False(t, again.Changed)
}

func TestTransform_UnknownReferencesUntouched(t *testing.T) {
	src := `function Icon() {
  return <svg><circle id="a" /><rect fill="url(#other)" /></svg>;
}
`
	res := transform(t, src, "Icon.jsx")
	assert.Contains(t, string(res.Output), `<rect fill="url(#other)" />`)
}

func TestTransform_NoDeclarationsLeavesFileUntouched(t *testing.T) {
	src := `function Icon() {
  return <svg><rect fill="url(#elsewhere)" /></svg>;
}
`
	res := transform(t, src, "Icon.jsx")
	assert.False(t, res.Changed)
	assert.Equal(t, src, string(res.Output))
	assert.Empty(t, res.Components)
	assert.Empty(t, res.Edits)
}

func TestTransform_IdOutsideSvgIgnored(t *testing.T) {
	src := `function Page() {
  return <div id="main"><a href="#main">top</a></div>;
}
`
	res := transform(t, src, "Page.jsx")
	assert.False(t, res.Changed)
	assert.Equal(t, src, string(res.Output))
}

func TestTransform_DuplicateIdsShareToken(t *testing.T) {
	src := `function Icon() {
  return <svg><path id="p" /><path id="p" /><use href="url(#p)" /></svg>;
}
`
	res := transform(t, src, "Icon.jsx")
	out := string(res.Output)
	assert.Equal(t, 2, strings.Count(out, "id={_id}"))
	assert.Equal(t, 1, strings.Count(out, "useUniqueInlineId();\n"))
	require.Len(t, res.Components, 1)
	assert.Equal(t, 2, res.Components[0].Declarations)
	assert.Len(t, res.Components[0].Identifiers, 1)
}

func TestTransform_BindingsInCreationOrder(t *testing.T) {
	src := `function Icon() {
  return <svg><path id="a" /><path id="b" /></svg>;
}
`
	res := transform(t, src, "Icon.jsx")
	assert.Contains(t, string(res.Output),
		"function Icon() {\n  const _id = useUniqueInlineId();\n  const _id2 = useUniqueInlineId();\n  return")
}

func TestTransform_ContainersShareFunctionRegistry(t *testing.T) {
	src := `function Icon() {
  return (
    <div>
      <svg><linearGradient id="g" /></svg>
      <svg><rect fill="url(#g)" /></svg>
    </div>
  );
}
`
	res := transform(t, src, "Icon.jsx")
	assert.Contains(t, string(res.Output), "<rect fill={`url(#${_id})`} />")
	require.Len(t, res.Components, 1)
	assert.Equal(t, 2, res.Components[0].Containers)
}

func TestTransform_NestedCallbackBelongsToOuterFunction(t *testing.T) {
	src := `function List({ items }) {
  return (
    <ul>
      {items.map((item) => (
        <svg key={item}>
          <path id="p" />
          <use xlinkHref="#p" />
        </svg>
      ))}
    </ul>
  );
}
`
	res := transform(t, src, "List.jsx")
	out := string(res.Output)
	assert.Contains(t, out, "function List({ items }) {\n  const _id = useUniqueInlineId();\n  return (")
	assert.Contains(t, out, "{items.map((item) => (\n")
	require.Len(t, res.Components, 1)
	assert.Equal(t, "List", res.Components[0].Name)
}

func TestTransform_TokensUniqueAcrossFile(t *testing.T) {
	src := `const _id = 'taken';

function A() {
  return <svg><path id="a" /></svg>;
}

function B() {
  return <svg><path id="a" /></svg>;
}
`
	res := transform(t, src, "Icons.jsx")
	out := string(res.Output)
	assert.Contains(t, out, "function A() {\n  const _id2 = useUniqueInlineId();")
	assert.Contains(t, out, "function B() {\n  const _id3 = useUniqueInlineId();")
	assert.Equal(t, 1, strings.Count(out, "import { useUniqueInlineId }"))
	require.Len(t, res.Components, 2)
	assert.Equal(t, "A", res.Components[0].Name)
	assert.Equal(t, "B", res.Components[1].Name)
}

func TestTransform_ExistingImportNotDuplicated(t *testing.T) {
	src := `import { useUniqueInlineId } from '@inline-svg-unique-id/react';

function Icon() {
  return <svg><path id="a" /></svg>;
}
`
	res := transform(t, src, "Icon.jsx")
	assert.Equal(t, 1, strings.Count(string(res.Output), "import { useUniqueInlineId }"))
}

func TestTransform_ExistingDefaultOrNamespaceImportNotDuplicated(t *testing.T) {
	for _, imp := range []string{
		"import useUniqueInlineId from '@inline-svg-unique-id/react';",
		"import * as useUniqueInlineId from '@inline-svg-unique-id/react';",
		"import React, { useUniqueInlineId as other } from 'react';\nimport useUniqueInlineId, { x } from '@inline-svg-unique-id/react';",
	} {
		t.Run(imp, func(t *testing.T) {
			src := imp + `

function Icon() {
  return <svg><path id="a" /></svg>;
}
`
			out := string(transform(t, src, "Icon.jsx").Output)
			assert.True(t, strings.HasPrefix(out, imp+"\n"), out)
			assert.Equal(t, 1, strings.Count(out, "from '@inline-svg-unique-id/react'"))
			assert.Contains(t, out, "const _id = useUniqueInlineId();")
		})
	}
}

func TestTransform_ImportAfterDirective(t *testing.T) {
	src := `'use client';

export function Icon() {
  return <svg><path id="a" /></svg>;
}
`
	res := transform(t, src, "Icon.jsx")
	assert.True(t, strings.HasPrefix(string(res.Output),
		"'use client';\n"+strings.TrimSuffix(importLine, "\n")+"\n\nexport function Icon() {"), string(res.Output))
}

func TestTransform_CustomHookAndLibrary(t *testing.T) {
	src := `function Icon() {
  return <svg><path id="a" /></svg>;
}
`
	tr := NewTransformer(WithHookName("useSvgId"), WithLibraryName("my-ids"))
	assert.Equal(t, "useSvgId", tr.HookName())
	assert.Equal(t, "my-ids", tr.LibraryName())

	res := transform(t, src, "Icon.jsx", WithHookName("useSvgId"), WithLibraryName("my-ids"))
	out := string(res.Output)
	assert.True(t, strings.HasPrefix(out, "import { useSvgId } from 'my-ids';\n"), out)
	assert.Contains(t, out, "const _id = useSvgId();")
}

func TestTransform_NonLiteralDeclarationsSkipped(t *testing.T) {
	src := `function Icon({ gid }) {
  return <svg><path id={gid} /><rect fill="url(#gid)" /></svg>;
}
`
	res := transform(t, src, "Icon.jsx")
	assert.False(t, res.Changed)
}

func TestTransform_Idempotent(t *testing.T) {
	src := `function Icon() {
  return <svg><path id="a" /><rect fill="url(#a)" /></svg>;
}
`
	first := transform(t, src, "Icon.jsx")
	require.True(t, first.Changed)

	second := transform(t, string(first.Output), "Icon.jsx")
	assert.False(t, second.Changed)
	assert.Equal(t, string(first.Output), string(second.Output))
}

func TestTransform_TSXMemoComponent(t *testing.T) {
	src := `const Icon: React.FC = memo(() => <svg><path id="x" /><use href="url(#x)" /></svg>);
`
	res := transform(t, src, "Icon.tsx")
	assert.Equal(t, "tsx", res.Language)
	want := importLine + "const Icon: React.FC = memo(() => {\n" +
		"  const _id = useUniqueInlineId();\n" +
		"  return <svg><path id={_id} /><use href={`url(#${_id})`} /></svg>;\n" +
		"});\n"
	assert.Equal(t, want, string(res.Output))
	require.Len(t, res.Components, 1)
	assert.Equal(t, "Icon", res.Components[0].Name)
}

func TestTransform_ClassMethod(t *testing.T) {
	src := `class Icon extends React.Component {
  render() {
    return <svg><path id="a" /></svg>;
  }
}
`
	res := transform(t, src, "Icon.jsx")
	assert.Contains(t, string(res.Output), "  render() {\n    const _id = useUniqueInlineId();\n    return")
	require.Len(t, res.Components, 1)
	assert.Equal(t, "render", res.Components[0].Name)
}

func TestTransform_Errors(t *testing.T) {
	tr := NewTransformer(WithMaxFileSize(64))
	ctx := context.Background()

	_, err := tr.Transform(ctx, []byte("x"), "style.css")
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))

	_, err = tr.Transform(ctx, []byte(strings.Repeat("a", 65)), "big.js")
	assert.True(t, errors.Is(err, ErrFileTooLarge))

	_, err = tr.Transform(ctx, []byte{0xff, 0xfe}, "bad.js")
	assert.True(t, errors.Is(err, ErrInvalidContent))

	_, err = tr.Transform(ctx, []byte("function ( {"), "broken.js")
	assert.True(t, errors.Is(err, ErrParseFailed))
	assert.True(t, IsParseError(err))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = tr.Transform(canceled, []byte("const a = 1;"), "a.js")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSupports(t *testing.T) {
	assert.True(t, Supports("a/Icon.JSX"))
	assert.True(t, Supports("Icon.tsx"))
	assert.False(t, Supports("Icon.ts"))
	assert.False(t, Supports("README.md"))
	for _, ext := range Extensions() {
		assert.True(t, Supports("x"+ext))
	}
}

func TestTransform_ResultHash(t *testing.T) {
	a := transform(t, "const a = 1;\n", "a.js")
	b := transform(t, "const a = 1;\n", "b.js")
	c := transform(t, "const a = 2;\n", "a.js")
	assert.Len(t, a.Hash, 64)
	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.Hash, c.Hash)
}
