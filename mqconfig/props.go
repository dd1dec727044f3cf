/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package mqconfig

import (
	"github.com/gravwell/mqwire/props"
	"github.com/gravwell/mqwire/value"
)

// Property name constants for the wire-level Configuration container
// named alongside the broker options table.
const (
	PropBrokerHost                = "BrokerHost"
	PropBrokerPort                = "BrokerPort"
	PropServicePort               = "ServicePort"
	PropConnectionType             = "ConnectionType"
	PropEnableIPv6                = "EnableIPv6"
	PropReadPortMapperTimeout      = "ReadPortMapperTimeout"
	PropWriteTimeout               = "WriteTimeout"
	PropSslBrokerIsTrusted         = "SslBrokerIsTrusted"
	PropSslCheckBrokerFingerprint  = "SslCheckBrokerFingerprint"
	PropSslBrokerCertFingerprint   = "SslBrokerCertFingerprint"
)

// ToProperties renders bc as a property map, losslessly recoverable via
// FromProperties.
func (bc BrokerConfig) ToProperties() (*props.Map, error) {
	m := props.New()
	hostVal, err := value.NewStrShort(bc.BrokerHost)
	if err != nil {
		return nil, err
	}
	connVal, err := value.NewStrShort(bc.ConnectionType)
	if err != nil {
		return nil, err
	}
	fpVal, err := value.NewStrShort(bc.SslBrokerCertFingerprint)
	if err != nil {
		return nil, err
	}
	entries := []struct {
		name string
		v    value.Value
	}{
		{PropBrokerHost, hostVal},
		{PropBrokerPort, value.NewI32(bc.BrokerPort)},
		{PropServicePort, value.NewI32(bc.ServicePort)},
		{PropConnectionType, connVal},
		{PropEnableIPv6, value.NewBool(bc.EnableIPv6)},
		{PropReadPortMapperTimeout, value.NewI32(bc.ReadPortMapperTimeout)},
		{PropWriteTimeout, value.NewI32(bc.WriteTimeout)},
		{PropSslBrokerIsTrusted, value.NewBool(bc.SslBrokerIsTrusted)},
		{PropSslCheckBrokerFingerprint, value.NewBool(bc.SslCheckBrokerFingerprint)},
		{PropSslBrokerCertFingerprint, fpVal},
	}
	for _, e := range entries {
		if err := m.Set(e.name, e.v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// FromProperties builds a BrokerConfig from a property map produced by
// ToProperties (or assembled by hand through the props API). Missing
// keys leave the corresponding field at its zero value.
func FromProperties(m *props.Map) (BrokerConfig, error) {
	var bc BrokerConfig
	if v, err := m.Get(PropBrokerHost); err == nil {
		bc.BrokerHost = v.AsString()
	}
	if v, err := m.Get(PropBrokerPort); err == nil {
		if i, err := v.AsI32(); err == nil {
			bc.BrokerPort = i
		} else {
			return BrokerConfig{}, err
		}
	}
	if v, err := m.Get(PropServicePort); err == nil {
		if i, err := v.AsI32(); err == nil {
			bc.ServicePort = i
		} else {
			return BrokerConfig{}, err
		}
	}
	if v, err := m.Get(PropConnectionType); err == nil {
		bc.ConnectionType = v.AsString()
	}
	if v, err := m.Get(PropEnableIPv6); err == nil {
		if b, err := v.AsBool(); err == nil {
			bc.EnableIPv6 = b
		} else {
			return BrokerConfig{}, err
		}
	}
	if v, err := m.Get(PropReadPortMapperTimeout); err == nil {
		if i, err := v.AsI32(); err == nil {
			bc.ReadPortMapperTimeout = i
		} else {
			return BrokerConfig{}, err
		}
	}
	if v, err := m.Get(PropWriteTimeout); err == nil {
		if i, err := v.AsI32(); err == nil {
			bc.WriteTimeout = i
		} else {
			return BrokerConfig{}, err
		}
	}
	if v, err := m.Get(PropSslBrokerIsTrusted); err == nil {
		if b, err := v.AsBool(); err == nil {
			bc.SslBrokerIsTrusted = b
		} else {
			return BrokerConfig{}, err
		}
	}
	if v, err := m.Get(PropSslCheckBrokerFingerprint); err == nil {
		if b, err := v.AsBool(); err == nil {
			bc.SslCheckBrokerFingerprint = b
		} else {
			return BrokerConfig{}, err
		}
	}
	if v, err := m.Get(PropSslBrokerCertFingerprint); err == nil {
		bc.SslBrokerCertFingerprint = v.AsString()
	}
	return bc, nil
}
