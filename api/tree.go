package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// TreeRootResponse carries the local commitment tree root and the
// number of leaves behind it.
type TreeRootResponse struct {
	Root string `json:"root"`
	Size uint64 `json:"size"`
}

// TreeProofResponse is the inclusion path of one leaf, ready to be fed
// back as an input merkle path in a proof request.
type TreeProofResponse struct {
	Index    uint64   `json:"index"`
	Leaf     string   `json:"leaf"`
	Root     string   `json:"root"`
	Siblings []string `json:"siblings"`
}

// treeRoot returns the current root of the local commitment tree.
func (a *API) treeRoot(w http.ResponseWriter, r *http.Request) {
	tr := a.service.Tree()
	root, err := tr.Root()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, TreeRootResponse{
		Root: root.String(),
		Size: tr.Size(),
	})
}

// treeProof returns the sibling path of the leaf at the index in the
// URL, zero-padded to the circuit depth.
func (a *API) treeProof(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(chi.URLParam(r, LeafIndexURLParam), 10, 64)
	if err != nil {
		ErrMalformedBody.Withf("invalid leaf index").Write(w)
		return
	}
	tr := a.service.Tree()
	if index >= tr.Size() {
		ErrResourceNotFound.Withf("leaf %d is not in the tree", index).Write(w)
		return
	}
	siblings, leaf, err := tr.GenerateProof(index)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	root, err := tr.Root()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	path := make([]string, len(siblings))
	for i, s := range siblings {
		path[i] = s.String()
	}
	httpWriteJSON(w, TreeProofResponse{
		Index:    index,
		Leaf:     leaf.String(),
		Root:     root.String(),
		Siblings: path,
	})
}
