// Package bundle packs skipchain blocks, and optionally the proof that links
// them, into a deterministic TAR archive for offline transfer.
//
// Layout:
//
//	blocks/<hex block id>   canonical block encoding
//	proof.json              optional model.ProofDocument
//	index.json              optional, non-authoritative listing
package bundle

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"xdao.co/skipproof/chainstore"
	"xdao.co/skipproof/model"
	"xdao.co/skipproof/skipchain"
	"xdao.co/skipproof/storage"
)

// FormatVersion is the current bundle index schema version.
const FormatVersion = 1

const (
	blocksDir = "blocks/"
	proofFile = "proof.json"
	indexFile = "index.json"
)

var epoch0 = time.Unix(0, 0).UTC()

type ExportOptions struct {
	// Proof is stored as proof.json when non-nil.
	Proof *model.ProofDocument
	// Labels is optional, non-authoritative metadata mapping names to blocks.
	Labels map[string]skipchain.BlockID
	// IncludeIndex controls whether index.json is included.
	IncludeIndex bool
	// SkipMissing leaves out ids the store does not hold instead of failing.
	SkipMissing bool
}

// Export writes the blocks with the given ids. Entry order is lexicographic
// and TAR headers are normalized, so equal inputs give equal bytes.
func Export(w io.Writer, store *chainstore.Store, ids []skipchain.BlockID, opts ExportOptions) error {
	if store == nil {
		return errors.New("bundle: nil store")
	}

	uniq := make(map[skipchain.BlockID]struct{}, len(ids))
	for _, id := range ids {
		uniq[id] = struct{}{}
	}
	sorted := make([]skipchain.BlockID, 0, len(uniq))
	for id := range uniq {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i][:], sorted[j][:]) < 0 })

	tw := tar.NewWriter(w)
	fail := func(err error) error {
		_ = tw.Close()
		return err
	}

	blocks := make([]indexBlock, 0, len(sorted))
	for _, id := range sorted {
		b, err := store.GetBlock(id)
		if err != nil {
			if opts.SkipMissing && storage.IsNotFound(err) {
				continue
			}
			return fail(fmt.Errorf("bundle: block %s: %w", id, err))
		}
		data := b.Encode()
		if err := writeFile(tw, blocksDir+id.String(), data); err != nil {
			return fail(err)
		}
		blocks = append(blocks, indexBlock{ID: id.String(), Size: len(data)})
	}

	if opts.IncludeIndex {
		idx := indexJSON{Version: FormatVersion, Blocks: blocks}
		names := make([]string, 0, len(opts.Labels))
		for k := range opts.Labels {
			if k == "" {
				return fail(errors.New("bundle: empty label key"))
			}
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			idx.Labels = append(idx.Labels, indexLabel{Name: k, ID: opts.Labels[k].String()})
		}
		raw, err := json.Marshal(idx)
		if err != nil {
			return fail(err)
		}
		if err := writeFile(tw, indexFile, append(raw, '\n')); err != nil {
			return fail(err)
		}
	}

	if opts.Proof != nil {
		var buf bytes.Buffer
		if err := model.Encode(&buf, opts.Proof); err != nil {
			return fail(err)
		}
		if err := writeFile(tw, proofFile, buf.Bytes()); err != nil {
			return fail(err)
		}
	}

	return tw.Close()
}

// ProofBlockIDs lists the genesis id and every link target of a proof.
func ProofBlockIDs(doc model.ProofDocument) ([]skipchain.BlockID, error) {
	g, err := skipchain.BlockIDFromHex(doc.GenesisID)
	if err != nil {
		return nil, err
	}
	ids := []skipchain.BlockID{g}
	for i, l := range doc.Links {
		to, err := skipchain.BlockIDFromHex(l.To)
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
		ids = append(ids, to)
	}
	return ids, nil
}

type ImportOptions struct {
	// IgnoreUnknown controls whether unknown TAR entries are ignored.
	//
	// Default (false) is fail-closed: unknown entries cause Import to return an error.
	IgnoreUnknown bool
}

// Contents describes what an import stored.
type Contents struct {
	IDs   []skipchain.BlockID
	Proof *model.ProofDocument
}

// Import reads a bundle and stores its blocks. Every block must decode
// canonically and hash to its entry name. The proof, if any, is decoded but
// not verified.
func Import(r io.Reader, store *chainstore.Store, opts ImportOptions) (*Contents, error) {
	if store == nil {
		return nil, errors.New("bundle: nil store")
	}

	tr := tar.NewReader(r)
	seen := map[skipchain.BlockID]struct{}{}
	out := &Contents{}

	for {
		h, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return nil, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}

		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return nil, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		switch {
		case name == indexFile:
			_, _ = io.Copy(io.Discard, tr)

		case name == proofFile:
			var doc model.ProofDocument
			if err := model.Decode(tr, &doc); err != nil {
				return nil, fmt.Errorf("bundle: %w", err)
			}
			out.Proof = &doc

		case strings.HasPrefix(name, blocksDir):
			id, err := skipchain.BlockIDFromHex(strings.TrimPrefix(name, blocksDir))
			if err != nil {
				return nil, fmt.Errorf("bundle: entry %s: %w", name, err)
			}
			if _, dup := seen[id]; dup {
				return nil, fmt.Errorf("bundle: duplicate block entry: %s", id)
			}
			seen[id] = struct{}{}

			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, err
			}
			b, err := skipchain.DecodeBlock(data)
			if err != nil {
				return nil, fmt.Errorf("bundle: block %s: %w", id, err)
			}
			if b.Hash() != id {
				return nil, fmt.Errorf("bundle: block %s: %w", id, storage.ErrCIDMismatch)
			}
			if _, err := store.PutBlock(b); err != nil {
				return nil, err
			}
			out.IDs = append(out.IDs, id)

		default:
			if !opts.IgnoreUnknown {
				return nil, fmt.Errorf("bundle: unknown entry: %s", name)
			}
			_, _ = io.Copy(io.Discard, tr)
		}
	}
}

type indexJSON struct {
	Version int          `json:"version"`
	Blocks  []indexBlock `json:"blocks"`
	Labels  []indexLabel `json:"labels,omitempty"`
}

type indexBlock struct {
	ID   string `json:"id"`
	Size int    `json:"size"`
}

type indexLabel struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
