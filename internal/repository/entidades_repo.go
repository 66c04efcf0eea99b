package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
)

// EmpresaRepository reads tenant fiscal configuration. Mutation belongs to
// tenant administration, outside the transaction core.
type EmpresaRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Empresa, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Empresa, error)
	Create(ctx context.Context, e *model.Empresa) error
}

type empresaRepo struct{ db *gorm.DB }

func NewEmpresaRepository(db *gorm.DB) EmpresaRepository { return &empresaRepo{db: db} }

func (r *empresaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Empresa, error) {
	var e model.Empresa
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *empresaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Empresa, error) {
	var e model.Empresa
	if err := tx.First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *empresaRepo) Create(ctx context.Context, e *model.Empresa) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ClienteRepository resolves buyers for comprobante-type classification.
type ClienteRepository interface {
	// FindByIDTx reads inside the sale transaction: the type resolution and
	// the factura RUC cross-check both consume this one snapshot.
	FindByIDTx(tx *gorm.DB, empresaID, id uuid.UUID) (*model.Cliente, error)
	FindByID(ctx context.Context, empresaID, id uuid.UUID) (*model.Cliente, error)
	Create(ctx context.Context, c *model.Cliente) error
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) FindByIDTx(tx *gorm.DB, empresaID, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := tx.Where("empresa_id = ?", empresaID).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clienteRepo) FindByID(ctx context.Context, empresaID, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Where("empresa_id = ?", empresaID).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// ProveedorRepository backs compras reconciliation.
type ProveedorRepository interface {
	FindByIDTx(tx *gorm.DB, empresaID, id uuid.UUID) (*model.Proveedor, error)
	Create(ctx context.Context, p *model.Proveedor) error
}

type proveedorRepo struct{ db *gorm.DB }

func NewProveedorRepository(db *gorm.DB) ProveedorRepository { return &proveedorRepo{db: db} }

func (r *proveedorRepo) FindByIDTx(tx *gorm.DB, empresaID, id uuid.UUID) (*model.Proveedor, error) {
	var p model.Proveedor
	err := tx.Where("empresa_id = ?", empresaID).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *proveedorRepo) Create(ctx context.Context, p *model.Proveedor) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// UsuarioRepository backs authentication.
type UsuarioRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.Usuario, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	Create(ctx context.Context, u *model.Usuario) error
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) FindByUsername(ctx context.Context, username string) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Where("username = ? AND activo = true", username).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *usuarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *usuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Create(u).Error
}
