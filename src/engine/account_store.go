package engine

import (
	"fmt"
	"sort"
	"time"
)

// AccountCommand is the payload for creating an account. Exactly one of
// Individual or Business must be set.
type AccountCommand struct {
	Email      string
	Phone      string
	Individual *IndividualProfile
	Business   *BusinessProfile
}

// AccountPatch updates an account. Nil fields are left untouched. Supplying
// a profile replaces the account's profile of the same variant; supplying
// the opposite variant is an invalid shape.
type AccountPatch struct {
	Email      *string
	Phone      *string
	Individual *IndividualProfile
	Business   *BusinessProfile
}

type AddressCommand struct {
	AccountID int64
	Street    string
	City      string
	State     string
	Zip       string
	Label     string
}

type AddressPatch struct {
	Street *string
	City   *string
	State  *string
	Zip    *string
	Label  *string
}

type PaymentMethodCommand struct {
	AccountID  int64
	MethodType string
	Provider   string
	Details    map[string]string
	IsDefault  bool
}

// PaymentMethodPatch updates a payment method. Nil fields are left
// untouched; a non-nil Details map replaces the stored one wholesale.
type PaymentMethodPatch struct {
	MethodType *string
	Provider   *string
	Details    map[string]string
	IsDefault  *bool
}

// ---------------------------------------- accounts ----------------------------------------

func (s *Store) AddAccount(cmd AccountCommand) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ValidateAccountShape(cmd.Individual, cmd.Business); err != nil {
		return nil, err
	}
	if err := checkNonEmpty("email", cmd.Email); err != nil {
		return nil, err
	}
	if owner, taken := s.accountEmails[cmd.Email]; taken {
		return nil, fmt.Errorf("%w: email %q already used by account %d", ErrConstraintViolated, cmd.Email, owner)
	}

	account := &Account{
		AccountID:  s.allocID(KindAccount),
		Email:      cmd.Email,
		Phone:      cmd.Phone,
		Individual: cloneIndividual(cmd.Individual),
		Business:   cloneBusiness(cmd.Business),
		CreatedAt:  time.Now(),
	}
	s.accounts[account.AccountID] = account
	s.accountEmails[account.Email] = account.AccountID

	return copyAccount(account), nil
}

func (s *Store) UpdateAccount(id int64, patch AccountPatch) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[id]
	if !exists {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, id)
	}

	// Build the candidate first; the stored record is only replaced once
	// every constraint holds.
	candidate := *account
	if patch.Email != nil {
		candidate.Email = *patch.Email
	}
	if patch.Phone != nil {
		candidate.Phone = *patch.Phone
	}
	if patch.Individual != nil {
		candidate.Individual = cloneIndividual(patch.Individual)
	}
	if patch.Business != nil {
		candidate.Business = cloneBusiness(patch.Business)
	}

	if err := ValidateAccountShape(candidate.Individual, candidate.Business); err != nil {
		return nil, err
	}
	if err := checkNonEmpty("email", candidate.Email); err != nil {
		return nil, err
	}
	if owner, taken := s.accountEmails[candidate.Email]; taken && owner != id {
		return nil, fmt.Errorf("%w: email %q already used by account %d", ErrConstraintViolated, candidate.Email, owner)
	}

	if candidate.Email != account.Email {
		delete(s.accountEmails, account.Email)
		s.accountEmails[candidate.Email] = id
	}
	*account = candidate

	return copyAccount(account), nil
}

// RemoveAccount deletes an account. Addresses and payment methods cascade;
// the delete is refused while any order still references the account.
func (s *Store) RemoveAccount(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[id]
	if !exists {
		return fmt.Errorf("%w: account %d", ErrNotFound, id)
	}
	if err := s.applyDeleteRules(KindAccount, id); err != nil {
		return err
	}

	delete(s.accountEmails, account.Email)
	delete(s.accounts, id)
	return nil
}

func (s *Store) GetAccount(id int64) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[id]
	if !exists {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, id)
	}
	return copyAccount(account), nil
}

// ListAccounts returns accounts matching the predicate (all when nil),
// ordered by id.
func (s *Store) ListAccounts(pred func(*Account) bool) []*Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Account
	for _, id := range sortedKeys(s.accounts) {
		account := s.accounts[id]
		if pred == nil || pred(account) {
			out = append(out, copyAccount(account))
		}
	}
	return out
}

// ---------------------------------------- addresses ----------------------------------------

func (s *Store) AddAddress(cmd AddressCommand) (*Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[cmd.AccountID]; !exists {
		return nil, fmt.Errorf("%w: address references missing account %d", ErrDanglingReference, cmd.AccountID)
	}

	address := &Address{
		AddressID: s.allocID(KindAddress),
		AccountID: cmd.AccountID,
		Street:    cmd.Street,
		City:      cmd.City,
		State:     cmd.State,
		Zip:       cmd.Zip,
		Label:     cmd.Label,
	}
	s.addresses[address.AddressID] = address
	s.index.addRef(s.index.accountAddresses, cmd.AccountID, address.AddressID)

	out := *address
	return &out, nil
}

func (s *Store) UpdateAddress(id int64, patch AddressPatch) (*Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	address, exists := s.addresses[id]
	if !exists {
		return nil, fmt.Errorf("%w: address %d", ErrNotFound, id)
	}
	if patch.Street != nil {
		address.Street = *patch.Street
	}
	if patch.City != nil {
		address.City = *patch.City
	}
	if patch.State != nil {
		address.State = *patch.State
	}
	if patch.Zip != nil {
		address.Zip = *patch.Zip
	}
	if patch.Label != nil {
		address.Label = *patch.Label
	}

	out := *address
	return &out, nil
}

func (s *Store) RemoveAddress(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.addresses[id]; !exists {
		return fmt.Errorf("%w: address %d", ErrNotFound, id)
	}
	s.removeAddressLocked(id)
	return nil
}

func (s *Store) removeAddressLocked(id int64) {
	address := s.addresses[id]
	s.index.removeRef(s.index.accountAddresses, address.AccountID, id)
	delete(s.addresses, id)
}

func (s *Store) GetAddress(id int64) (*Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	address, exists := s.addresses[id]
	if !exists {
		return nil, fmt.Errorf("%w: address %d", ErrNotFound, id)
	}
	out := *address
	return &out, nil
}

// ListAddresses returns addresses matching the predicate, ordered by id.
func (s *Store) ListAddresses(pred func(*Address) bool) []*Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Address
	for _, id := range sortedKeys(s.addresses) {
		address := s.addresses[id]
		if pred == nil || pred(address) {
			copied := *address
			out = append(out, &copied)
		}
	}
	return out
}

// ---------------------------------------- payment methods ----------------------------------------

func (s *Store) AddPaymentMethod(cmd PaymentMethodCommand) (*PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[cmd.AccountID]; !exists {
		return nil, fmt.Errorf("%w: payment method references missing account %d", ErrDanglingReference, cmd.AccountID)
	}
	if err := checkNonEmpty("method_type", cmd.MethodType); err != nil {
		return nil, err
	}

	method := &PaymentMethod{
		PaymentMethodID: s.allocID(KindPaymentMethod),
		AccountID:       cmd.AccountID,
		MethodType:      cmd.MethodType,
		Provider:        cmd.Provider,
		Details:         cloneDetails(cmd.Details),
		IsDefault:       cmd.IsDefault,
	}
	s.paymentMethods[method.PaymentMethodID] = method
	s.index.addRef(s.index.accountPaymentMethods, cmd.AccountID, method.PaymentMethodID)

	return copyPaymentMethod(method), nil
}

func (s *Store) UpdatePaymentMethod(id int64, patch PaymentMethodPatch) (*PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	method, exists := s.paymentMethods[id]
	if !exists {
		return nil, fmt.Errorf("%w: payment method %d", ErrNotFound, id)
	}

	candidate := *method
	if patch.MethodType != nil {
		candidate.MethodType = *patch.MethodType
	}
	if patch.Provider != nil {
		candidate.Provider = *patch.Provider
	}
	if patch.Details != nil {
		candidate.Details = cloneDetails(patch.Details)
	}
	if patch.IsDefault != nil {
		candidate.IsDefault = *patch.IsDefault
	}

	if err := checkNonEmpty("method_type", candidate.MethodType); err != nil {
		return nil, err
	}

	*method = candidate
	return copyPaymentMethod(method), nil
}

// RemovePaymentMethod deletes a payment method; orders that referenced it
// keep existing with the reference cleared.
func (s *Store) RemovePaymentMethod(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.paymentMethods[id]; !exists {
		return fmt.Errorf("%w: payment method %d", ErrNotFound, id)
	}
	s.removePaymentMethodLocked(id)
	return nil
}

func (s *Store) removePaymentMethodLocked(id int64) {
	// Set-null rules never fail, so the cascade cannot abort midway.
	_ = s.applyDeleteRules(KindPaymentMethod, id)
	method := s.paymentMethods[id]
	s.index.removeRef(s.index.accountPaymentMethods, method.AccountID, id)
	delete(s.paymentMethods, id)
}

func (s *Store) GetPaymentMethod(id int64) (*PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	method, exists := s.paymentMethods[id]
	if !exists {
		return nil, fmt.Errorf("%w: payment method %d", ErrNotFound, id)
	}
	return copyPaymentMethod(method), nil
}

// ListPaymentMethods returns payment methods matching the predicate,
// ordered by id.
func (s *Store) ListPaymentMethods(pred func(*PaymentMethod) bool) []*PaymentMethod {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*PaymentMethod
	for _, id := range sortedKeys(s.paymentMethods) {
		method := s.paymentMethods[id]
		if pred == nil || pred(method) {
			out = append(out, copyPaymentMethod(method))
		}
	}
	return out
}

// ---------------------------------------- copies ----------------------------------------

func cloneIndividual(p *IndividualProfile) *IndividualProfile {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

func cloneBusiness(p *BusinessProfile) *BusinessProfile {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

func cloneDetails(details map[string]string) map[string]string {
	if details == nil {
		return nil
	}
	out := make(map[string]string, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}

func copyAccount(a *Account) *Account {
	copied := *a
	copied.Individual = cloneIndividual(a.Individual)
	copied.Business = cloneBusiness(a.Business)
	return &copied
}

func copyPaymentMethod(m *PaymentMethod) *PaymentMethod {
	copied := *m
	copied.Details = cloneDetails(m.Details)
	return &copied
}

func sortedKeys[T any](m map[int64]*T) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
