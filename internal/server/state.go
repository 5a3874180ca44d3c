package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/me/entrena/pkg/model"
)

var (
	errAccountExists = errors.New("user exists")
	errNoAccount     = errors.New("user not found")
)

type account struct {
	id       int64
	email    string
	nombre   string
	password [sha256.Size]byte

	clienteID    int64 // 0 when the account has no client profile
	entrenadorID int64 // 0 when the account has no trainer profile
}

func (a *account) checkPassword(pw string) bool {
	sum := sha256.Sum256([]byte(pw))
	return subtle.ConstantTimeCompare(sum[:], a.password[:]) == 1
}

type medicion struct {
	id        int64
	clienteID int64
	peso      float64
	altura    *float64
	cintura   *float64
	fecha     string
	creadoEn  time.Time
}

type rutina struct {
	id           int64
	entrenadorID int64
	body         model.Rutina
	creadoEn     time.Time
}

// state is the in-memory backing data. All IDs come from one sequence.
type state struct {
	mu         sync.Mutex
	seq        int64
	accounts   map[string]*account // by email
	byID       map[int64]*account
	mediciones []*medicion
	rutinas    map[int64]*rutina
	issued     []string        // token IDs in issue order
	revoked    map[string]bool // token IDs
}

func newState() *state {
	return &state{
		accounts: make(map[string]*account),
		byID:     make(map[int64]*account),
		rutinas:  make(map[int64]*rutina),
		revoked:  make(map[string]bool),
	}
}

func (st *state) next() int64 {
	st.seq++
	return st.seq
}

// createAccount registers a user with a client profile.
func (st *state) createAccount(email, password, nombre string) (*account, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.accounts[email]; ok {
		return nil, errAccountExists
	}
	a := &account{
		id:       st.next(),
		email:    email,
		nombre:   nombre,
		password: sha256.Sum256([]byte(password)),
	}
	a.clienteID = st.next()
	st.accounts[email] = a
	st.byID[a.id] = a
	return a, nil
}

func (st *state) accountByEmail(email string) (account, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	a, ok := st.accounts[email]
	if !ok {
		return account{}, false
	}
	return *a, true
}

func (st *state) accountByID(id int64) (account, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	a, ok := st.byID[id]
	if !ok {
		return account{}, false
	}
	return *a, true
}

func (st *state) accountCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.accounts)
}

// promote gives the account a trainer profile. created is false when it
// already had one.
func (st *state) promote(email string) (entrenadorID int64, created bool, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	a, ok := st.accounts[email]
	if !ok {
		return 0, false, errNoAccount
	}
	if a.entrenadorID != 0 {
		return a.entrenadorID, false, nil
	}
	a.entrenadorID = st.next()
	return a.entrenadorID, true, nil
}

func (st *state) addMedicion(m medicion) int64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	m.id = st.next()
	st.mediciones = append(st.mediciones, &m)
	return m.id
}

// medicionesFor returns the measurements of a client, newest first.
func (st *state) medicionesFor(clienteID int64) []model.Medicion {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []*medicion
	for _, m := range st.mediciones {
		if m.clienteID == clienteID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].id > out[j].id })

	result := make([]model.Medicion, 0, len(out))
	for _, m := range out {
		result = append(result, model.Medicion{
			ID:      model.ID(strconv.FormatInt(m.id, 10)),
			Peso:    m.peso,
			Altura:  m.altura,
			Cintura: m.cintura,
			Fecha:   m.fecha,
		})
	}
	return result
}

func (st *state) clienteOwner(clienteID int64) (int64, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, a := range st.byID {
		if a.clienteID == clienteID {
			return a.id, true
		}
	}
	return 0, false
}

func (st *state) addRutina(entrenadorID int64, body model.Rutina, now time.Time) model.Rutina {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.next()
	body.ID = model.ID(strconv.FormatInt(id, 10))
	body.EsPublica = false
	body.CreadoEn = now.UTC().Format(time.RFC3339)
	st.rutinas[id] = &rutina{id: id, entrenadorID: entrenadorID, body: body, creadoEn: now}
	return body
}

// rutinasFor returns a trainer's routines, newest first.
func (st *state) rutinasFor(entrenadorID int64) []model.Rutina {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.collectRutinas(func(r *rutina) bool { return r.entrenadorID == entrenadorID })
}

func (st *state) publicRutinas() []model.Rutina {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.collectRutinas(func(r *rutina) bool { return r.body.EsPublica })
}

func (st *state) collectRutinas(keep func(*rutina) bool) []model.Rutina {
	var out []*rutina
	for _, r := range st.rutinas {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id > out[j].id })
	result := make([]model.Rutina, 0, len(out))
	for _, r := range out {
		result = append(result, r.body)
	}
	return result
}

func (st *state) rutina(id int64) (rutina, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	r, ok := st.rutinas[id]
	if !ok {
		return rutina{}, false
	}
	return *r, true
}

func (st *state) deleteRutina(id int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.rutinas, id)
}

func (st *state) entrenadorOwner(entrenadorID int64) (int64, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, a := range st.byID {
		if a.entrenadorID == entrenadorID {
			return a.id, true
		}
	}
	return 0, false
}

func (st *state) recordToken(jti string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.issued = append(st.issued, jti)
}

func (st *state) isRevoked(jti string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.revoked[jti]
}

// revokeAll revokes every token issued so far and returns how many were newly revoked.
func (st *state) revokeAll() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for _, jti := range st.issued {
		if !st.revoked[jti] {
			st.revoked[jti] = true
			n++
		}
	}
	return n
}
