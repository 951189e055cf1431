package rewrite

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/language"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/logging"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/nfo"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/tmdb"
)

// fieldText is one chosen field with the language it came from. The
// language "original" marks content carried over from the document
// rather than the provider.
type fieldText struct {
	content string
	lang    string
}

type selection struct {
	title       fieldText
	description fieldText
}

func (r *Rewriter) processNFO(ctx context.Context, path string) Result {
	res, err := r.rewriteNFO(ctx, path)
	if err != nil {
		logging.WithContext(ctx, r.logger).Error("sidecar processing failed",
			logging.String(logging.FieldPath, path), logging.Error(err))
		return failure(path, fmt.Sprintf("processing error: %v", err))
	}
	return res
}

func (r *Rewriter) rewriteNFO(ctx context.Context, path string) (Result, error) {
	doc, err := r.loadDocument(ctx, path)
	if err != nil {
		return Result{}, err
	}
	if doc.MultiEpisode() {
		return r.rewriteMultiEpisode(ctx, path, doc)
	}
	return r.rewriteSingle(ctx, path, doc)
}

func (r *Rewriter) rewriteSingle(ctx context.Context, path string, doc *nfo.Document) (Result, error) {
	root := doc.Root()
	format := nfo.Select(root, r.cfg.Rewrite.Format)
	if format == nil {
		return failure(path, "no identifier found in sidecar"), nil
	}

	ref := r.entityRef(ctx, root, path)
	if ref == nil {
		return failure(path, "no identifier found in sidecar"), nil
	}

	set, err := r.client.Translations(ctx, *ref)
	if err != nil {
		return Result{}, err
	}

	currentTitle, currentDescription := format.ExtractText(root)
	sel, found := selectPreferred(set, r.cfg.Rewrite.PreferredLanguages)

	if !found {
		return r.revertToOriginal(path, doc, format, ref, set, currentTitle, currentDescription)
	}

	sel = r.fillFromOriginal(ctx, root, sel, currentTitle, currentDescription)

	if sel.title.content == currentTitle && sel.description.content == currentDescription {
		return Result{
			Success:  true,
			Path:     path,
			Message:  "content already matches preferred translation",
			Ref:      ref,
			Language: sel.language(),
		}, nil
	}

	return r.writeSelection(path, doc, []applied{{root: root, format: format, sel: sel}}, ref, sel)
}

type applied struct {
	root   *nfo.Element
	format nfo.Format
	sel    selection
}

func (r *Rewriter) rewriteMultiEpisode(ctx context.Context, path string, doc *nfo.Document) (Result, error) {
	var writes []applied
	var translated int
	var firstRef *tmdb.EntityRef
	var firstSel *selection

	for _, entry := range doc.Entries {
		format := nfo.Select(entry, r.cfg.Rewrite.Format)
		if format == nil {
			continue
		}
		ref := r.entityRef(ctx, entry, path)
		if ref == nil {
			continue
		}
		if firstRef == nil {
			firstRef = ref
		}
		set, err := r.client.Translations(ctx, *ref)
		if err != nil {
			return Result{}, err
		}
		sel, found := selectPreferred(set, r.cfg.Rewrite.PreferredLanguages)
		if !found {
			continue
		}
		currentTitle, currentDescription := format.ExtractText(entry)
		sel = r.fillFromOriginal(ctx, entry, sel, currentTitle, currentDescription)
		translated++
		if firstSel == nil {
			s := sel
			firstSel = &s
		}
		// An entry already holding the selected text needs no write;
		// re-serializing it would retrigger the watcher forever.
		if sel.title.content == currentTitle && sel.description.content == currentDescription {
			continue
		}
		writes = append(writes, applied{root: entry, format: format, sel: sel})
	}

	if translated == 0 {
		return failure(path, "no translations found for any episode in file"), nil
	}
	if len(writes) == 0 {
		return Result{
			Success:  true,
			Path:     path,
			Message:  "content already matches preferred translation",
			Ref:      firstRef,
			Language: firstSel.language(),
		}, nil
	}

	backupCreated, err := r.backups.Create(path)
	if err != nil {
		return Result{}, err
	}
	for _, w := range writes {
		w.format.WriteText(w.root, w.sel.title.content, w.sel.description.content)
	}
	if err := r.writeAtomic(path, doc.Encode()); err != nil {
		return Result{}, err
	}

	return Result{
		Success:       true,
		Path:          path,
		Message:       fmt.Sprintf("translated %d/%d episodes", len(writes), len(doc.Entries)),
		Ref:           firstRef,
		BackupCreated: backupCreated,
		FileModified:  true,
		Language:      firstSel.language(),
	}, nil
}

// revertToOriginal handles the no-preferred-translation outcome: if a
// backup holds different text than the live file, the rewrite is
// undone; otherwise the file is reported unchanged with both language
// sets in the message.
func (r *Rewriter) revertToOriginal(path string, doc *nfo.Document, format nfo.Format, ref *tmdb.EntityRef, set tmdb.TranslationSet, currentTitle, currentDescription string) (Result, error) {
	unavailable := fmt.Sprintf("no translation available in preferred languages [%s]. Available: [%s]",
		strings.Join(r.cfg.Rewrite.PreferredLanguages, ", "), availableLanguages(set))

	backupPath := r.backups.Locate(path)
	if backupPath == "" {
		return Result{
			Path:    path,
			Message: "file unchanged - " + unavailable,
			Ref:     ref,
		}, nil
	}

	original, err := nfo.Load(backupPath)
	if err != nil {
		r.logger.Warn("failed to read backup sidecar",
			logging.String(logging.FieldPath, backupPath), logging.Error(err))
		return Result{
			Path:    path,
			Message: "file unchanged - " + unavailable,
			Ref:     ref,
		}, nil
	}
	originalTitle, originalDescription := format.ExtractText(original.Root())

	if originalTitle == currentTitle && originalDescription == currentDescription {
		return Result{
			Path:    path,
			Message: "file unchanged - content already matches original and " + unavailable,
			Ref:     ref,
		}, nil
	}

	sel := selection{
		title:       fieldText{content: originalTitle, lang: language.Original},
		description: fieldText{content: originalDescription, lang: language.Original},
	}
	return r.writeSelection(path, doc, []applied{{root: doc.Root(), format: format, sel: sel}}, ref, sel)
}

func (r *Rewriter) writeSelection(path string, doc *nfo.Document, writes []applied, ref *tmdb.EntityRef, sel selection) (Result, error) {
	backupCreated, err := r.backups.Create(path)
	if err != nil {
		return Result{}, err
	}
	for _, w := range writes {
		w.format.WriteText(w.root, w.sel.title.content, w.sel.description.content)
	}
	if err := r.writeAtomic(path, doc.Encode()); err != nil {
		return Result{}, err
	}
	return Result{
		Success:       true,
		Path:          path,
		Message:       successMessage(sel),
		Ref:           ref,
		BackupCreated: backupCreated,
		FileModified:  true,
		Language:      sel.language(),
	}, nil
}

// selectPreferred picks the best title and description independently:
// for each field, the first preferred language offering non-empty
// content wins. A partially translated preferred language therefore
// merges with the next one instead of blanking a field.
func selectPreferred(set tmdb.TranslationSet, preferred []string) (selection, bool) {
	var sel selection
	for _, lang := range preferred {
		text, ok := set[lang]
		if !ok {
			continue
		}
		if sel.title.content == "" && text.Title != "" {
			sel.title = fieldText{content: text.Title, lang: lang}
		}
		if sel.description.content == "" && text.Description != "" {
			sel.description = fieldText{content: text.Description, lang: lang}
		}
		if sel.title.content != "" && sel.description.content != "" {
			break
		}
	}
	found := sel.title.content != "" || sel.description.content != ""
	return sel, found
}

// fillFromOriginal replaces empty fields of a partial translation with
// the document's current content. An empty title may instead take the
// provider's original-language title when that language shares the
// selection's base language.
func (r *Rewriter) fillFromOriginal(ctx context.Context, root *nfo.Element, sel selection, currentTitle, currentDescription string) selection {
	if sel.title.content != "" && sel.description.content != "" {
		return sel
	}

	if sel.title.content == "" {
		lang := sel.title.lang
		if lang == "" {
			lang = sel.description.lang
		}
		if title := r.originalTitleIfBaseMatches(ctx, root, lang); title != "" {
			sel.title = fieldText{content: title, lang: lang}
		} else {
			sel.title = fieldText{content: currentTitle, lang: language.Original}
		}
	}
	if sel.description.content == "" {
		sel.description = fieldText{content: currentDescription, lang: language.Original}
	}
	return sel
}

// originalTitleIfBaseMatches fetches the series' canonical title when
// its original language shares the preferred language's base, so a
// Japanese show with no translated title keeps its Japanese name for a
// "ja-JP" preference instead of falling back to whatever is on disk.
func (r *Rewriter) originalTitleIfBaseMatches(ctx context.Context, root *nfo.Element, preferredLang string) string {
	if preferredLang == "" || preferredLang == language.Original {
		return ""
	}
	ids := nfo.ExtractIDs(root)
	if ids.TMDB == 0 {
		return ""
	}
	origLang, origTitle, err := r.client.OriginalDetails(ctx, tmdb.SeriesRef(ids.TMDB))
	if err != nil || origLang == "" {
		return ""
	}
	if !language.SameBase(preferredLang, origLang) {
		return ""
	}
	return origTitle
}

func (s selection) language() string {
	if s.title.lang != "" && s.title.lang != language.Original {
		return s.title.lang
	}
	if s.description.lang != "" && s.description.lang != language.Original {
		return s.description.lang
	}
	return language.Original
}

func successMessage(sel selection) string {
	if sel.title.lang == sel.description.lang {
		return fmt.Sprintf("translated to %s", sel.title.lang)
	}
	var parts []string
	if sel.title.content != "" {
		parts = append(parts, "title: "+sel.title.lang)
	}
	if sel.description.content != "" {
		parts = append(parts, "description: "+sel.description.lang)
	}
	return fmt.Sprintf("translated (%s)", strings.Join(parts, ", "))
}

func availableLanguages(set tmdb.TranslationSet) string {
	if len(set) == 0 {
		return "none"
	}
	langs := make([]string, 0, len(set))
	for lang := range set {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return strings.Join(langs, ", ")
}
