package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

// registry es la única tabla de estado, indexada por address. Una address apunta
// a su posición viva, o queda marcada como cerrada tras vender.
// Todo check-and-set ocurre bajo mu.
type registry struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	position domain.Position
	settled  bool
}

func newRegistry() *registry {
	return &registry{slots: make(map[string]*slot)}
}

// blocked indica si addr está viva o cerrada.
func (r *registry) blocked(addr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.slots[addr]
	return ok
}

// reserve crea de forma atómica una posición CANDIDATE para addr. Devuelve false
// si addr ya tiene posición viva o está cerrada.
func (r *registry) reserve(s domain.TokenSnapshot, now time.Time) (domain.Position, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[s.Address]; ok {
		return domain.Position{}, false
	}
	p := domain.NewPosition(s, now)
	r.slots[s.Address] = &slot{position: p}
	return p, true
}

// update aplica fn a la posición viva bajo el lock y devuelve el resultado.
// fn no debe bloquear.
func (r *registry) update(addr string, fn func(p *domain.Position) error) (domain.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sl, ok := r.slots[addr]
	if !ok || sl.settled {
		return domain.Position{}, domain.ErrNotFound
	}
	if err := fn(&sl.position); err != nil {
		return sl.position, err
	}
	return sl.position, nil
}

// settle guarda la posición SOLD y excluye addr el resto de la ejecución.
func (r *registry) settle(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sl, ok := r.slots[addr]; ok {
		sl.settled = true
	}
}

// release descarta una posición fallida para que la address pueda reevaluarse.
// Las addresses cerradas nunca se liberan.
func (r *registry) release(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sl, ok := r.slots[addr]; ok && !sl.settled {
		delete(r.slots, addr)
	}
}

func (r *registry) counts() (active, settled int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sl := range r.slots {
		if sl.settled {
			settled++
		} else {
			active++
		}
	}
	return active, settled
}

// snapshot devuelve copias de las posiciones (la más nueva primero) y las addresses cerradas.
func (r *registry) snapshot() ([]domain.Position, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	positions := make([]domain.Position, 0, len(r.slots))
	var settled []string
	for addr, sl := range r.slots {
		positions = append(positions, sl.position)
		if sl.settled {
			settled = append(settled, addr)
		}
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].OpenedAt.After(positions[j].OpenedAt)
	})
	sort.Strings(settled)
	return positions, settled
}
