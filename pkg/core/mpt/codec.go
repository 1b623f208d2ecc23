package mpt

import (
	"fmt"

	"github.com/nspcc-dev/mptindex/pkg/io"
	"github.com/nspcc-dev/mptindex/pkg/util"
)

// maxEncodedPathLength is the max length of a hex-prefix encoded edge.
const maxEncodedPathLength = MaxKeyLength + 1

// nodeRecord is a stored node representation, branch children are
// referenced by their digests.
type nodeRecord struct {
	typ      NodeType
	edge     []byte
	key      []byte
	value    []byte
	children [childrenCount]util.Uint256
}

// encodeNode serializes a leaf or a branch node.
func encodeNode(n Node) []byte {
	buf := io.NewBufBinWriter()
	w := buf.BinWriter
	w.WriteB(byte(n.Type()))
	switch n := n.(type) {
	case *LeafNode:
		w.WriteVarBytes(EncodePath(n.edge, true))
		w.WriteVarBytes(n.key)
		w.WriteVarBytes(n.value)
	case *BranchNode:
		w.WriteVarBytes(EncodePath(n.edge, false))
		for i := range n.children {
			d := n.children[i].Hash()
			w.WriteBytes(d[:])
		}
	default:
		panic(fmt.Sprintf("can't encode %s node", n.Type()))
	}
	return buf.Bytes()
}

// decodeNode deserializes node record checking its format.
func decodeNode(data []byte) (*nodeRecord, error) {
	var (
		rec = new(nodeRecord)
		r   = io.NewBinReaderFromBuf(data)
	)
	rec.typ = NodeType(r.ReadB())
	if r.Err != nil {
		return nil, r.Err
	}
	switch rec.typ {
	case LeafT, BranchT:
	default:
		return nil, fmt.Errorf("invalid node type: %x", byte(rec.typ))
	}
	encoded := r.ReadVarBytes(maxEncodedPathLength)
	if r.Err != nil {
		return nil, r.Err
	}
	edge, terminal, err := DecodePath(encoded)
	if err != nil {
		return nil, err
	}
	if terminal != (rec.typ == LeafT) {
		return nil, fmt.Errorf("%w: terminal flag mismatch for %s node", ErrInvalidPath, rec.typ)
	}
	rec.edge = edge
	if rec.typ == LeafT {
		rec.key = r.ReadVarBytes(MaxKeyLength)
		rec.value = r.ReadVarBytes(MaxValueLength)
	} else {
		for i := range rec.children {
			r.ReadBytes(rec.children[i][:])
		}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after %s node", r.Len(), rec.typ)
	}
	return rec, nil
}
