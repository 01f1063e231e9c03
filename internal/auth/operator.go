package auth

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// Operator - учётная запись, которой разрешено изменять мир через API.
type Operator struct {
	ID           uint64
	Name         string // уникально без учёта регистра
	PasswordHash string // bcrypt
	CreatedAt    time.Time
	LastLogin    time.Time
}

var (
	ErrOperatorNotFound = errors.New("оператор не найден")
	ErrOperatorExists   = errors.New("оператор уже существует")
	ErrBadCredentials   = errors.New("неверное имя или пароль")
)

// OperatorRepository - хранилище операторов
type OperatorRepository interface {
	GetByName(name string) (*Operator, error)
	Create(name, passwordHash string) (*Operator, error)
	TouchLogin(id uint64) error
}

// MemoryOperatorRepo - потокобезопасное хранилище в памяти. ID начинаются с 1.
type MemoryOperatorRepo struct {
	mu     sync.RWMutex
	byName map[string]*Operator // key = lowercase(name)
	nextID uint64
}

// NewMemoryOperatorRepo возвращает пустое хранилище
func NewMemoryOperatorRepo() *MemoryOperatorRepo {
	return &MemoryOperatorRepo{
		byName: make(map[string]*Operator),
		nextID: 1,
	}
}

func (r *MemoryOperatorRepo) GetByName(name string) (*Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.byName[normalize(name)]
	if !ok {
		return nil, ErrOperatorNotFound
	}
	cp := *op
	return &cp, nil
}

func (r *MemoryOperatorRepo) Create(name, passwordHash string) (*Operator, error) {
	key := normalize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[key]; exists {
		return nil, ErrOperatorExists
	}

	op := &Operator{
		ID:           r.nextID,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	r.nextID++
	r.byName[key] = op
	cp := *op
	return &cp, nil
}

func (r *MemoryOperatorRepo) TouchLogin(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, op := range r.byName {
		if op.ID == id {
			op.LastLogin = time.Now()
			return nil
		}
	}
	return ErrOperatorNotFound
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
