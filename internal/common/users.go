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

package common

import (
	"fmt"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"

	"go.uber.org/zap"
)

// InitializeUsers returns the deployment's users, or the single user matching filter
// (a configured name or an address).
func InitializeUsers(deployment *models.Deployment, filter string, logger *zap.Logger) ([]models.DeploymentUser, error) {
	var users []models.DeploymentUser

	if filter != "" {
		logger.Info("Looking up user", zap.String("user", filter))
		user, err := ResolveUser(deployment, filter)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	} else {
		users = append(users, deployment.Users...)
	}

	logger.Info("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

// ResolveUser accepts a configured user name or a raw address
func ResolveUser(deployment *models.Deployment, key string) (models.DeploymentUser, error) {
	if u, ok := deployment.FindUser(key); ok {
		return *u, nil
	}
	addr, err := address.Parse(key)
	if err != nil {
		return models.DeploymentUser{}, fmt.Errorf("user not found: %q", key)
	}
	return models.DeploymentUser{Name: addr.Short(), Address: addr}, nil
}
