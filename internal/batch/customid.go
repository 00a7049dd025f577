// Package batch implements the C7 Batch Orchestrator: build, submit,
// monitor, and process phases over an external asynchronous batch LLM API
// (spec §4.7).
package batch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/types"
)

// CustomID is the decoded form of a provider request's custom_id, carrying
// both position and entity-id provenance (spec §4.7 build phase step 3):
// "efficient_{op}_{table}_batch_{i}_{id1,id2,...}".
type CustomID struct {
	Op    types.OperationKind
	Table types.TableKind
	Index int
	IDs   []int64
}

// Encode renders a CustomID in the wire format.
func (c CustomID) Encode() string {
	idStrs := make([]string, len(c.IDs))
	for i, id := range c.IDs {
		idStrs[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("efficient_%s_%s_batch_%d_%s", c.Op, c.Table, c.Index, strings.Join(idStrs, ","))
}

var knownTables = []types.TableKind{types.TableIssues, types.TableForumPosts, types.TableDocs, types.TableQAs}

const customIDPrefix = "efficient_"
const customIDMarker = "_batch_"

// ParseCustomID decodes the wire format back into op, table, batch index,
// and entity id list, used by the process phase to recover provenance for
// an output line (spec §4.7 process phase step 1). Both op and table are
// themselves underscore-separated (e.g. "questions_and_concepts",
// "github_issues"), so parsing anchors on the literal "_batch_" marker and
// the fixed table-kind vocabulary rather than naive splitting.
func ParseCustomID(s string) (CustomID, error) {
	if !strings.HasPrefix(s, customIDPrefix) {
		return CustomID{}, errors.New(errors.KindModelOutput, "batch: malformed custom_id "+s)
	}
	markerAt := strings.Index(s, customIDMarker)
	if markerAt < 0 {
		return CustomID{}, errors.New(errors.KindModelOutput, "batch: malformed custom_id "+s)
	}
	head := s[len(customIDPrefix):markerAt]
	tail := s[markerAt+len(customIDMarker):]

	var op types.OperationKind
	var table types.TableKind
	found := false
	for _, t := range knownTables {
		suffix := "_" + string(t)
		if strings.HasSuffix(head, suffix) {
			table = t
			op = types.OperationKind(strings.TrimSuffix(head, suffix))
			found = true
			break
		}
	}
	if !found {
		return CustomID{}, errors.New(errors.KindModelOutput, "batch: unrecognized table in custom_id "+s)
	}

	tailParts := strings.SplitN(tail, "_", 2)
	if len(tailParts) != 2 {
		return CustomID{}, errors.New(errors.KindModelOutput, "batch: malformed custom_id tail "+s)
	}
	idx, err := strconv.Atoi(tailParts[0])
	if err != nil {
		return CustomID{}, errors.Wrap(errors.KindModelOutput, "batch: malformed custom_id index", err)
	}
	idStrs := strings.Split(tailParts[1], ",")
	ids := make([]int64, 0, len(idStrs))
	for _, idStr := range idStrs {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return CustomID{}, errors.Wrap(errors.KindModelOutput, "batch: malformed custom_id id list", err)
		}
		ids = append(ids, id)
	}
	return CustomID{Op: op, Table: table, Index: idx, IDs: ids}, nil
}

// Contains reports whether id is among the CustomID's entity ids, the
// defense against model hallucination described in spec §4.7.
func (c CustomID) Contains(id int64) bool {
	for _, x := range c.IDs {
		if x == id {
			return true
		}
	}
	return false
}
