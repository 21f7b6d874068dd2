package mocks

//go:generate mockery --name Settlement --srcpkg github.com/aevon-lab/ticket-ledger/internal/ledger --output ./ledger --outpkg ledgermocks --with-expecter
//go:generate mockery --name Store --srcpkg github.com/aevon-lab/ticket-ledger/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
