package scheme

import (
	"howett.net/plist"
)

type schemeManagement struct {
	SchemeUserState               map[string]schemeState    `plist:"SchemeUserState"`
	SuppressBuildableAutocreation map[string]buildableState `plist:"SuppressBuildableAutocreation"`
}

type schemeState struct {
	OrderHint int `plist:"orderHint"`
}

type buildableState struct {
	Primary bool `plist:"primary"`
}

type workspaceSettings struct {
	AutocreateContextsIfNeeded bool `plist:"IDEWorkspaceSharedSettings_AutocreateContextsIfNeeded"`
}

func marshalPlist(v any) ([]byte, error) {
	data, err := plist.MarshalIndent(v, plist.XMLFormat, "\t")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
