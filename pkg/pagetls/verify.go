package pagetls

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/joshuapare/pagetls/internal/vmem"
	"github.com/joshuapare/pagetls/pkg/types"
)

// Verify checks the steady-state protection contract: every registered page
// not currently held open by a Read or Write must fault on access. It returns
// one ErrProtection error per readable page, combined.
//
// Verify is meant for quiescent engines; a page opened concurrently between
// the exposure check and the probe is reported as a violation.
func (e *Engine) Verify() error {
	refs := e.regions.SharePages()
	defer func() {
		for i := range refs {
			refs[i].Release()
		}
	}()

	var errs error
	for i := range refs {
		p := refs[i].Page()
		if p.Exposed() {
			continue
		}
		if err := vmem.Probe(p.Bytes()); err == nil {
			errs = multierr.Append(errs, &types.Error{
				Kind: types.ErrKindProtection,
				Msg:  fmt.Sprintf("page 0x%x readable outside an access call", p.Addr()),
			})
		}
	}
	return errs
}
