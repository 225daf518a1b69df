package signing

import (
	"strings"

	"esign-canvas/internal/domain/entity"
)

// SignerProgress is one signer's completion within a document group.
type SignerProgress struct {
	Signer   string `json:"signer"`
	Name     string `json:"name,omitempty"`
	Signed   int    `json:"signed"`
	Total    int    `json:"total"`
	Complete bool   `json:"complete"`
}

// GroupProgress summarizes the signature fields of a document group.
type GroupProgress struct {
	DocumentGroup string           `json:"documentGroup"`
	Signers       []SignerProgress `json:"signers"`
	Signed        int              `json:"signed"`
	Total         int              `json:"total"`
	Complete      bool             `json:"complete"`
}

// Progress counts signed signature tabs per signer, in order of first appearance.
// Signers are keyed by mail, then name, then signer id.
func Progress(group string, tabs []entity.SignerTab) GroupProgress {
	out := GroupProgress{DocumentGroup: group, Signers: []SignerProgress{}}
	index := map[string]int{}

	for _, t := range tabs {
		if t.TabType != entity.FieldSignature {
			continue
		}
		key := signerKey(t)
		i, ok := index[strings.ToLower(key)]
		if !ok {
			name := ""
			if entity.IsSet(t.SignerName) {
				name = t.SignerName
			}
			out.Signers = append(out.Signers, SignerProgress{Signer: key, Name: name})
			i = len(out.Signers) - 1
			index[strings.ToLower(key)] = i
		}
		out.Signers[i].Total++
		out.Total++
		if t.Signed() {
			out.Signers[i].Signed++
			out.Signed++
		}
	}

	for i := range out.Signers {
		out.Signers[i].Complete = out.Signers[i].Signed == out.Signers[i].Total
	}
	out.Complete = out.Total > 0 && out.Signed == out.Total
	return out
}

func signerKey(t entity.SignerTab) string {
	switch {
	case entity.IsSet(t.SignerMail):
		return t.SignerMail
	case entity.IsSet(t.SignerName):
		return t.SignerName
	default:
		return t.SignerID
	}
}
