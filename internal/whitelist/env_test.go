/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package whitelist

import (
	"errors"
	"fmt"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/rent"
)

var errNotFound = errors.New("not found")

// memEnv is an in-memory Env with the same funding rules as the runtime.
type memEnv struct {
	program  address.Address
	schedule rent.Schedule
	accounts map[address.Address]*models.Account
}

func newMemEnv() *memEnv {
	return &memEnv{
		program:  address.FromName("whitelist-test"),
		schedule: rent.Default(),
		accounts: make(map[address.Address]*models.Account),
	}
}

func (m *memEnv) fund(a address.Address, lamports uint64) {
	m.accounts[a] = &models.Account{Address: a, Lamports: lamports}
}

func (m *memEnv) lamports(a address.Address) uint64 {
	if acc, ok := m.accounts[a]; ok {
		return acc.Lamports
	}
	return 0
}

func (m *memEnv) ProgramID() address.Address { return m.program }
func (m *memEnv) Rent() rent.Schedule        { return m.schedule }

func (m *memEnv) Account(a address.Address) (*models.Account, error) {
	acc, ok := m.accounts[a]
	if !ok {
		return nil, errNotFound
	}
	return acc.Clone(), nil
}

func (m *memEnv) Exists(a address.Address) (bool, error) {
	_, ok := m.accounts[a]
	return ok, nil
}

func (m *memEnv) CreateAccount(payer, addr address.Address, space int, owner address.Address, seeds ...[]byte) error {
	if _, ok := m.accounts[addr]; ok {
		return fmt.Errorf("exists")
	}
	cost := m.schedule.MinimumBalance(space)
	if err := m.debit(payer, cost); err != nil {
		return err
	}
	m.accounts[addr] = &models.Account{Address: addr, Owner: owner, Lamports: cost, Data: make([]byte, space)}
	return nil
}

func (m *memEnv) WriteData(a address.Address, data []byte) error {
	acc, ok := m.accounts[a]
	if !ok || len(acc.Data) != len(data) {
		return fmt.Errorf("bad write")
	}
	acc.Data = append([]byte(nil), data...)
	return nil
}

func (m *memEnv) Resize(a address.Address, size int) error {
	acc, ok := m.accounts[a]
	if !ok {
		return errNotFound
	}
	if acc.Lamports < m.schedule.MinimumBalance(size) {
		return fmt.Errorf("not rent exempt")
	}
	resized := make([]byte, size)
	copy(resized, acc.Data)
	acc.Data = resized
	return nil
}

func (m *memEnv) TransferLamports(from, to address.Address, amount uint64) error {
	if err := m.debit(from, amount); err != nil {
		return err
	}
	if _, ok := m.accounts[to]; !ok {
		m.fund(to, 0)
	}
	m.accounts[to].Lamports += amount
	return nil
}

func (m *memEnv) Close(a, dest address.Address) error {
	acc, ok := m.accounts[a]
	if !ok {
		return errNotFound
	}
	delete(m.accounts, a)
	if _, ok := m.accounts[dest]; !ok {
		m.fund(dest, 0)
	}
	m.accounts[dest].Lamports += acc.Lamports
	return nil
}

func (m *memEnv) debit(a address.Address, amount uint64) error {
	acc, ok := m.accounts[a]
	if !ok || acc.Lamports < amount {
		return fmt.Errorf("insufficient lamports")
	}
	acc.Lamports -= amount
	return nil
}
