package directors

import (
	"fmt"

	"shopdb/src/engine"
	"shopdb/src/settings"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
)

// AccountService owns the account side of the model: accounts, their
// addresses and payment methods.
type AccountService struct {
	store     *engine.Store
	snapshots engine.SnapshotStore
	journal   *engine.Journal
	settings  *settings.Arguments
	logger    *zap.SugaredLogger
}

func NewAccountService(store *engine.Store, snapshots engine.SnapshotStore, journal *engine.Journal,
	logger *zap.SugaredLogger, settings *settings.Arguments) *AccountService {
	return &AccountService{
		store:     store,
		snapshots: snapshots,
		journal:   journal,
		settings:  settings,
		logger:    logger,
	}
}

func (s *AccountService) CreateAccount(cmd engine.AccountCommand) (*engine.Account, error) {
	account, err := s.store.AddAccount(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	if s.settings.Debug {
		s.logger.Debugf("Created account: %s", spew.Sdump(account))
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("account %d", account.AccountID), engine.KindAccount)
	return account, nil
}

func (s *AccountService) UpdateAccount(id int64, patch engine.AccountPatch) (*engine.Account, error) {
	account, err := s.store.UpdateAccount(id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update account %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"UPDATE", fmt.Sprintf("account %d", id), engine.KindAccount)
	return account, nil
}

// DeleteAccount removes an account and everything that cascades with it.
func (s *AccountService) DeleteAccount(id int64) error {
	if err := s.store.RemoveAccount(id); err != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("account %d", id),
		engine.KindAccount, engine.KindAddress, engine.KindPaymentMethod, engine.KindOrder)
	return nil
}

func (s *AccountService) GetAccount(id int64) (*engine.Account, error) {
	return s.store.GetAccount(id)
}

func (s *AccountService) ListAccounts(pred func(*engine.Account) bool) []*engine.Account {
	return s.store.ListAccounts(pred)
}

func (s *AccountService) AddAddress(cmd engine.AddressCommand) (*engine.Address, error) {
	address, err := s.store.AddAddress(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to add address: %w", err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("address %d", address.AddressID), engine.KindAddress)
	return address, nil
}

func (s *AccountService) UpdateAddress(id int64, patch engine.AddressPatch) (*engine.Address, error) {
	address, err := s.store.UpdateAddress(id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update address %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"UPDATE", fmt.Sprintf("address %d", id), engine.KindAddress)
	return address, nil
}

func (s *AccountService) DeleteAddress(id int64) error {
	if err := s.store.RemoveAddress(id); err != nil {
		return fmt.Errorf("failed to delete address %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("address %d", id), engine.KindAddress)
	return nil
}

func (s *AccountService) ListAddresses(pred func(*engine.Address) bool) []*engine.Address {
	return s.store.ListAddresses(pred)
}

func (s *AccountService) AddPaymentMethod(cmd engine.PaymentMethodCommand) (*engine.PaymentMethod, error) {
	method, err := s.store.AddPaymentMethod(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to add payment method: %w", err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"CREATE", fmt.Sprintf("payment method %d", method.PaymentMethodID), engine.KindPaymentMethod)
	return method, nil
}

func (s *AccountService) UpdatePaymentMethod(id int64, patch engine.PaymentMethodPatch) (*engine.PaymentMethod, error) {
	method, err := s.store.UpdatePaymentMethod(id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment method %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"UPDATE", fmt.Sprintf("payment method %d", id), engine.KindPaymentMethod)
	return method, nil
}

// DeletePaymentMethod drops a payment method; orders that referenced it are
// left in place with the reference cleared.
func (s *AccountService) DeletePaymentMethod(id int64) error {
	if err := s.store.RemovePaymentMethod(id); err != nil {
		return fmt.Errorf("failed to delete payment method %d: %w", id, err)
	}
	recordMutation(s.store, s.snapshots, s.journal, s.logger,
		"DELETE", fmt.Sprintf("payment method %d", id),
		engine.KindPaymentMethod, engine.KindOrder)
	return nil
}

func (s *AccountService) ListPaymentMethods(pred func(*engine.PaymentMethod) bool) []*engine.PaymentMethod {
	return s.store.ListPaymentMethods(pred)
}
